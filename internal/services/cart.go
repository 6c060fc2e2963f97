package service

import (
	"context"
	"errors"
	"math"
	"time"

	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/models"
	repository "github.com/gearnix/autoparts-api/internal/repositories"
	"github.com/google/uuid"
)

// CartService is the per-user pending purchase. Every mutation recomputes
// the total and writes through to the durable store; persistence failures
// are returned to the caller, never swallowed.
type CartService interface {
	Hydrate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddLine(ctx context.Context, userID uuid.UUID, req *models.AddLineRequest) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error)
	RemoveLine(ctx context.Context, userID uuid.UUID, sku string) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

// Hydrate loads the durable cart, creating an empty one on first use. It is
// called once per authentication event so client state and the durable
// store cannot diverge across sessions or devices.
func (s *cartService) Hydrate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}

	if !errors.Is(err, repository.ErrCartNotFound) {
		return nil, appErrors.DatabaseError("Failed to load cart").WithError(err)
	}

	cart = &models.Cart{
		ID:        uuid.New(),
		UserID:    userID,
		Lines:     make(map[string]models.CartLine),
		Total:     0,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.cartRepo.CreateCart(ctx, cart); err != nil {
		return nil, appErrors.DatabaseError("Failed to create cart").WithError(err)
	}

	return cart, nil
}

// AddLine merges the product into the cart: an existing line for the SKU
// gains quantity, a new line snapshots the product's current display data.
func (s *cartService) AddLine(ctx context.Context, userID uuid.UUID, req *models.AddLineRequest) (*models.Cart, error) {
	product, err := s.productRepo.GetProductBySKU(ctx, req.SKU)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to load product").WithError(err)
	}

	if !product.Active {
		return nil, appErrors.ProductInactiveError(product.SKU)
	}

	cart, err := s.Hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}

	line, exists := cart.Lines[product.SKU]
	if exists {
		line.Quantity += req.Quantity
	} else {
		line = models.CartLine{
			SKU:         product.SKU,
			Name:        product.Name,
			UnitPrice:   product.Price,
			Quantity:    req.Quantity,
			Description: product.Description,
			ImageURL:    product.ImageURL,
		}
	}

	line.Subtotal = roundToCents(line.UnitPrice * float64(line.Quantity))
	cart.Lines[product.SKU] = line

	return s.persist(ctx, cart)
}

// UpdateQuantity sets the line's quantity; zero or negative removes the
// line rather than erroring, so sloppy callers cannot corrupt the cart.
func (s *cartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error) {
	cart, err := s.Hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}

	line, exists := cart.Lines[req.SKU]
	if !exists {
		return nil, appErrors.BadRequestError("Item not found in the cart")
	}

	if req.Quantity <= 0 {
		delete(cart.Lines, req.SKU)
	} else {
		line.Quantity = req.Quantity
		line.Subtotal = roundToCents(line.UnitPrice * float64(line.Quantity))
		cart.Lines[req.SKU] = line
	}

	return s.persist(ctx, cart)
}

func (s *cartService) RemoveLine(ctx context.Context, userID uuid.UUID, sku string) (*models.Cart, error) {
	cart, err := s.Hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, exists := cart.Lines[sku]; !exists {
		return nil, appErrors.BadRequestError("Item not found in the cart")
	}

	delete(cart.Lines, sku)

	return s.persist(ctx, cart)
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Lines = make(map[string]models.CartLine)

	return s.persist(ctx, cart)
}

func (s *cartService) persist(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	cart.Total = calculateTotal(cart.Lines)
	cart.UpdatedAt = time.Now()

	if err := s.cartRepo.UpdateCart(ctx, cart); err != nil {
		return nil, appErrors.DatabaseError("Failed to update cart").WithError(err)
	}

	return cart, nil
}

func calculateTotal(lines map[string]models.CartLine) float64 {
	var total float64

	for _, line := range lines {
		total += line.Subtotal
	}

	return roundToCents(total)
}

// roundToCents rounds half up to two decimals, matching the rounding the
// gateway sees when amounts are converted to minor currency units.
func roundToCents(v float64) float64 {
	return math.Round(v*100) / 100
}
