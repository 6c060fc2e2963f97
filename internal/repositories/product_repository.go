package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gearnix/autoparts-api/internal/models"
	"github.com/gearnix/autoparts-api/internal/utils"
)

var ErrProductNotFound = errors.New("product not found")

// StockDecrement reports the before/after stock of a guarded decrement.
// Clamped is true when the requested quantity exceeded the available stock
// and the count was floored at zero instead of going negative.
type StockDecrement struct {
	SKU       string
	Requested int
	Previous  int
	Remaining int
	Clamped   bool
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	ListProducts(ctx context.Context, page, size int) ([]*models.Product, int, error)
	DecrementStock(ctx context.Context, sku string, quantity int) (*StockDecrement, error)
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO products (sku, name, brand, category, description, image_url, price, stock_count, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	return r.DB.QueryRowContext(dbCtx, query,
		product.SKU, product.Name, product.Brand, product.Category, product.Description,
		product.ImageURL, product.Price, product.StockCount, product.Active).
		Scan(&product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	product := &models.Product{}

	query := `
		SELECT sku, name, brand, category, description, image_url, price, stock_count, active, created_at, updated_at
		FROM products
		WHERE sku = $1`

	err := r.DB.QueryRowContext(dbCtx, query, sku).
		Scan(&product.SKU, &product.Name, &product.Brand, &product.Category, &product.Description,
			&product.ImageURL, &product.Price, &product.StockCount, &product.Active,
			&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	return product, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET name = $1, brand = $2, category = $3, description = $4, image_url = $5,
		    price = $6, stock_count = $7, active = $8, updated_at = NOW()
		WHERE sku = $9
		RETURNING updated_at`

	err := r.DB.QueryRowContext(dbCtx, query,
		product.Name, product.Brand, product.Category, product.Description, product.ImageURL,
		product.Price, product.StockCount, product.Active, product.SKU).
		Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}

		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

func (r *productRepository) ListProducts(ctx context.Context, page, size int) ([]*models.Product, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM products`

	if err := r.DB.QueryRowContext(dbCtx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size

	query := `
		SELECT sku, name, brand, category, description, image_url, price, stock_count, active, created_at, updated_at
		FROM products
		ORDER BY sku
		LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(dbCtx, query, size, offset)
	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	var products []*models.Product

	for rows.Next() {
		product := &models.Product{}

		err := rows.Scan(&product.SKU, &product.Name, &product.Brand, &product.Category,
			&product.Description, &product.ImageURL, &product.Price, &product.StockCount,
			&product.Active, &product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// DecrementStock applies a single guarded stock decrement. The row is
// locked for the duration of the statement and the new count is floored at
// zero, so concurrent reconciliations can never drive stock negative.
func (r *productRepository) DecrementStock(ctx context.Context, sku string, quantity int) (*StockDecrement, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		WITH prev AS (
			SELECT sku, stock_count FROM products WHERE sku = $1 FOR UPDATE
		)
		UPDATE products p
		SET stock_count = GREATEST(p.stock_count - $2, 0), updated_at = NOW()
		FROM prev
		WHERE p.sku = prev.sku
		RETURNING prev.stock_count, p.stock_count`

	dec := &StockDecrement{SKU: sku, Requested: quantity}

	err := r.DB.QueryRowContext(dbCtx, query, sku, quantity).Scan(&dec.Previous, &dec.Remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}

		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	dec.Clamped = dec.Previous < quantity

	return dec, nil
}
