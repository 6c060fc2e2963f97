package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gearnix/autoparts-api/internal/api/middleware"
	"github.com/gearnix/autoparts-api/internal/config"
	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/metrics"
	"github.com/gearnix/autoparts-api/internal/models"
	repository "github.com/gearnix/autoparts-api/internal/repositories"
	stripeClient "github.com/gearnix/autoparts-api/pkg/stripe"
	"github.com/google/uuid"
)

// CheckoutService turns a cart into a receipt. The card path creates a
// gateway session and a pending receipt; money is only acknowledged later
// by the reconciler. The cash path has no asynchronous confirmation step,
// so it fuses initiation and reconciliation into one call.
type CheckoutService interface {
	CheckoutCard(ctx context.Context, claims *models.Claims, req *models.CheckoutCardRequest) (*models.CheckoutCardResponse, error)
	CheckoutCash(ctx context.Context, claims *models.Claims) (*models.Receipt, error)
}

type checkoutService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	receiptRepo repository.ReceiptRepository
	locks       repository.CheckoutLockRepository
	gateway     stripeClient.Client
	cfg         *config.Config
}

func NewCheckoutService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	receiptRepo repository.ReceiptRepository,
	locks repository.CheckoutLockRepository,
	gateway stripeClient.Client,
	cfg *config.Config,
) CheckoutService {
	return &checkoutService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		receiptRepo: receiptRepo,
		locks:       locks,
		gateway:     gateway,
		cfg:         cfg,
	}
}

func (s *checkoutService) CheckoutCard(ctx context.Context, claims *models.Claims, req *models.CheckoutCardRequest) (*models.CheckoutCardResponse, error) {
	logger := middleware.LoggerFromContext(ctx)

	if claims == nil {
		return nil, appErrors.UnauthenticatedError("Authentication required")
	}

	cart, err := s.loadNonEmptyCart(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	// Advisory validation: stock is only decremented at reconciliation
	// time, so a concurrent sale can still win the race. The reconciler's
	// guarded decrement resolves that case; this check just refuses carts
	// that are already known to be unfulfillable.
	if err := s.validateLines(ctx, cart); err != nil {
		metrics.RecordCheckout(string(models.PaymentMethodCard), "rejected")

		return nil, err
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = s.cfg.Stripe.SuccessURL
	}

	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.cfg.Stripe.CancelURL
	}

	session, err := s.gateway.CreateCheckoutSession(&stripeClient.CheckoutSessionParams{
		CustomerEmail: claims.Email,
		Currency:      s.cfg.Stripe.Currency,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		ClientRefID:   claims.UserID.String(),
		Items:         gatewayLineItems(cart),
	})
	if err != nil {
		metrics.RecordCheckout(string(models.PaymentMethodCard), "gateway_error")

		return nil, appErrors.GatewayError("Failed to create payment session").WithError(err)
	}

	receipt := &models.Receipt{
		ID:            uuid.New(),
		SessionRef:    session.ID,
		UserID:        claims.UserID,
		Items:         snapshotLines(cart),
		Total:         cart.Total,
		PaymentMethod: models.PaymentMethodCard,
		Status:        models.ReceiptStatusPending,
	}

	// The pending receipt must exist before the client is sent to the
	// gateway's hosted page; a payment with no receipt is unrecoverable.
	if err := s.receiptRepo.CreateReceipt(ctx, receipt); err != nil {
		metrics.RecordCheckout(string(models.PaymentMethodCard), "persist_error")

		return nil, appErrors.DatabaseError("Failed to record checkout").WithError(err)
	}

	logger.Info("Card checkout initiated",
		slog.String("sessionRef", session.ID),
		slog.String("userId", claims.UserID.String()),
		slog.Float64("total", cart.Total))
	metrics.RecordCheckout(string(models.PaymentMethodCard), "initiated")

	return &models.CheckoutCardResponse{
		SessionRef:  session.ID,
		RedirectURL: session.URL,
		Total:       cart.Total,
	}, nil
}

func (s *checkoutService) CheckoutCash(ctx context.Context, claims *models.Claims) (*models.Receipt, error) {
	logger := middleware.LoggerFromContext(ctx)

	if claims == nil {
		return nil, appErrors.UnauthenticatedError("Authentication required")
	}

	if !claims.Role.IsStaff() {
		return nil, appErrors.ForbiddenError("Cash checkout requires a staff account")
	}

	acquired, err := s.locks.AcquireCheckoutLock(ctx, claims.UserID.String())
	if err != nil {
		return nil, appErrors.InternalError("Failed to reserve checkout").WithError(err)
	}

	if !acquired {
		metrics.RecordCheckout(string(models.PaymentMethodCash), "in_progress")

		return nil, appErrors.CheckoutInProgressError()
	}

	defer func() {
		if err := s.locks.ReleaseCheckoutLock(ctx, claims.UserID.String()); err != nil {
			logger.Warn("Failed to release checkout lock",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
		}
	}()

	cart, err := s.loadNonEmptyCart(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.validateLines(ctx, cart); err != nil {
		metrics.RecordCheckout(string(models.PaymentMethodCash), "rejected")

		return nil, err
	}

	receipt := &models.Receipt{
		ID:            uuid.New(),
		SessionRef:    fmt.Sprintf("cash_%s", uuid.NewString()),
		UserID:        claims.UserID,
		Items:         snapshotLines(cart),
		Total:         cart.Total,
		PaymentMethod: models.PaymentMethodCash,
		Status:        models.ReceiptStatusPaid,
	}

	if err := s.receiptRepo.CreateReceipt(ctx, receipt); err != nil {
		metrics.RecordCheckout(string(models.PaymentMethodCash), "persist_error")

		return nil, appErrors.DatabaseError("Failed to record sale").WithError(err)
	}

	// Money already changed hands at the counter, so the stock effects are
	// applied here rather than waiting for a confirmation that never comes.
	applyStockDecrements(ctx, s.productRepo, logger, receipt)

	if err := s.clearCart(ctx, cart); err != nil {
		logger.Error("Failed to clear cart after cash sale",
			slog.String("receiptId", receipt.ID.String()),
			slog.String("error", err.Error()))
	}

	logger.Info("Cash sale completed",
		slog.String("receiptId", receipt.ID.String()),
		slog.String("sessionRef", receipt.SessionRef),
		slog.Float64("total", receipt.Total))
	metrics.RecordCheckout(string(models.PaymentMethodCash), "completed")

	return receipt, nil
}

func (s *checkoutService) loadNonEmptyCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, appErrors.EmptyCartError()
		}

		return nil, appErrors.DatabaseError("Failed to load cart").WithError(err)
	}

	if len(cart.Lines) == 0 {
		return nil, appErrors.EmptyCartError()
	}

	return cart, nil
}

func (s *checkoutService) validateLines(ctx context.Context, cart *models.Cart) error {
	for _, line := range cart.Lines {
		product, err := s.productRepo.GetProductBySKU(ctx, line.SKU)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return appErrors.ProductInactiveError(line.SKU)
			}

			return appErrors.DatabaseError("Failed to validate cart").WithError(err)
		}

		if !product.Active {
			return appErrors.ProductInactiveError(line.SKU)
		}

		if product.StockCount < line.Quantity {
			return appErrors.InsufficientStockError(line.SKU)
		}
	}

	return nil
}

func (s *checkoutService) clearCart(ctx context.Context, cart *models.Cart) error {
	cart.Lines = make(map[string]models.CartLine)
	cart.Total = 0
	cart.UpdatedAt = time.Now()

	return s.cartRepo.UpdateCart(ctx, cart)
}

// snapshotLines copies the cart into receipt items. The copy is what makes
// receipts immutable history: later catalog edits never touch them.
func snapshotLines(cart *models.Cart) []models.ReceiptItem {
	items := make([]models.ReceiptItem, 0, len(cart.Lines))

	for _, line := range cart.Lines {
		items = append(items, models.ReceiptItem{
			SKU:       line.SKU,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal,
		})
	}

	return items
}

func gatewayLineItems(cart *models.Cart) []stripeClient.LineItem {
	items := make([]stripeClient.LineItem, 0, len(cart.Lines))

	for _, line := range cart.Lines {
		items = append(items, stripeClient.LineItem{
			Name:        line.Name,
			Description: line.Description,
			AmountCents: toCents(line.UnitPrice),
			Quantity:    int64(line.Quantity),
		})
	}

	return items
}

// toCents converts a display price to minor currency units, rounding half
// up so the gateway total matches the displayed total.
func toCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
