package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gearnix/autoparts-api/internal/cache"
	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/models"
	repository "github.com/gearnix/autoparts-api/internal/repositories"
	"github.com/microcosm-cc/bluemonday"
)

type ProductService interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	UpdateProduct(ctx context.Context, sku string, req *models.UpdateProductRequest) (*models.Product, error)
	ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error)
}

type productService struct {
	repo      repository.ProductRepository
	cache     cache.Cache
	sanitizer *bluemonday.Policy
}

func NewProductService(repo repository.ProductRepository, productCache cache.Cache) ProductService {
	return &productService{
		repo:      repo,
		cache:     productCache,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

func (s *productService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	product := &models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Brand:       req.Brand,
		Category:    req.Category,
		Description: s.sanitizer.Sanitize(req.Description),
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		StockCount:  req.StockCount,
		Active:      true,
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, appErrors.DatabaseError("Failed to create product").WithError(err)
	}

	return product, nil
}

func (s *productService) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	cacheKey := cache.Key(cache.ProductKeyPrefix, sku)

	cached := &models.Product{}

	hit, err := s.cache.Get(ctx, cacheKey, cached)
	if err != nil {
		// Cache trouble degrades to a catalog read.
		slog.Warn("Product cache read failed", slog.String("sku", sku), slog.String("error", err.Error()))
	} else if hit {
		return cached, nil
	}

	product, err := s.repo.GetProductBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to load product").WithError(err)
	}

	if err := s.cache.Set(ctx, cacheKey, product, 0); err != nil {
		slog.Warn("Product cache write failed", slog.String("sku", sku), slog.String("error", err.Error()))
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, sku string, req *models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.repo.GetProductBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to load product").WithError(err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}

	if req.Brand != nil {
		product.Brand = *req.Brand
	}

	if req.Category != nil {
		product.Category = *req.Category
	}

	if req.Description != nil {
		product.Description = s.sanitizer.Sanitize(*req.Description)
	}

	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}

	if req.Price != nil {
		product.Price = *req.Price
	}

	if req.StockCount != nil {
		product.StockCount = *req.StockCount
	}

	if req.Active != nil {
		product.Active = *req.Active
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, appErrors.DatabaseError("Failed to update product").WithError(err)
	}

	if err := s.cache.Delete(ctx, cache.Key(cache.ProductKeyPrefix, sku)); err != nil {
		slog.Warn("Product cache invalidation failed", slog.String("sku", sku), slog.String("error", err.Error()))
	}

	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error) {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	products, total, err := s.repo.ListProducts(ctx, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, total, nil
}
