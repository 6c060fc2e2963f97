package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gearnix/autoparts-api/internal/api/middleware"
	"github.com/gearnix/autoparts-api/internal/config"
	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/metrics"
	"github.com/gearnix/autoparts-api/internal/models"
	repository "github.com/gearnix/autoparts-api/internal/repositories"
	"github.com/gearnix/autoparts-api/pkg/sendgrid"
	stripeClient "github.com/gearnix/autoparts-api/pkg/stripe"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
)

const (
	reconcileSourceWebhook = "webhook"
	reconcileSourcePoll    = "poll"
)

// ReconcilerService settles card payments. The gateway's webhook and the
// client's bounded confirmation poll both funnel into ConfirmSession, whose
// guarded status transition guarantees the paid side effects run once no
// matter how many confirmations race for the same session.
type ReconcilerService interface {
	ProcessWebhook(ctx context.Context, payload []byte, signature string) error
	ConfirmSession(ctx context.Context, sessionRef, source string) (*models.Receipt, error)
	ConfirmWithRetry(ctx context.Context, claims *models.Claims, sessionRef string) (*models.ConfirmResponse, error)
}

type reconcilerService struct {
	receiptRepo repository.ReceiptRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	userRepo    repository.UserRepository
	gateway     stripeClient.Client
	email       sendgrid.EmailService
	cfg         *config.Config
}

func NewReconcilerService(
	receiptRepo repository.ReceiptRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	gateway stripeClient.Client,
	email sendgrid.EmailService,
	cfg *config.Config,
) ReconcilerService {
	return &reconcilerService{
		receiptRepo: receiptRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		email:       email,
		cfg:         cfg,
	}
}

// ProcessWebhook handles a raw gateway delivery. Unrecognized event types
// are acknowledged without action so the gateway does not keep retrying
// deliveries this service will never care about.
func (s *reconcilerService) ProcessWebhook(ctx context.Context, payload []byte, signature string) error {
	logger := middleware.LoggerFromContext(ctx)

	event, err := s.gateway.VerifyWebhookSignature(payload, signature)
	if err != nil {
		metrics.RecordWebhookSignatureFailure()
		logger.Warn("Webhook signature verification failed", slog.String("error", err.Error()))

		return appErrors.InvalidSignatureError().WithError(err)
	}

	if event.Type != stripeClient.EventCheckoutCompleted {
		logger.Info("Ignoring webhook event", slog.String("type", string(event.Type)))

		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return appErrors.BadRequestError("Malformed webhook payload").WithError(err)
	}

	if _, err := s.ConfirmSession(ctx, session.ID, reconcileSourceWebhook); err != nil {
		return err
	}

	return nil
}

// ConfirmSession performs the pending -> paid transition for a session and,
// when this caller wins the transition, the one-time paid side effects:
// stock decrements, cart clearing and the confirmation email. A caller that
// loses the race gets the already-paid receipt back as a no-op.
func (s *reconcilerService) ConfirmSession(ctx context.Context, sessionRef, source string) (*models.Receipt, error) {
	logger := middleware.LoggerFromContext(ctx)

	won, err := s.receiptRepo.MarkPaid(ctx, sessionRef)
	if err != nil {
		metrics.RecordReconciliation(source, "error")

		return nil, appErrors.DatabaseError("Failed to update receipt status").WithError(err)
	}

	receipt, err := s.receiptRepo.GetReceiptBySessionRef(ctx, sessionRef)
	if err != nil {
		if errors.Is(err, repository.ErrReceiptNotFound) {
			metrics.RecordReconciliation(source, "not_found")

			return nil, appErrors.ReceiptNotFoundError(sessionRef)
		}

		return nil, appErrors.DatabaseError("Failed to load receipt").WithError(err)
	}

	if !won {
		// Another confirmation already flipped the status and ran the side
		// effects. Duplicate webhooks and poll/webhook races land here.
		metrics.RecordReconciliation(source, "duplicate")
		logger.Info("Session already reconciled",
			slog.String("sessionRef", sessionRef), slog.String("source", source))

		return receipt, nil
	}

	applyStockDecrements(ctx, s.productRepo, logger, receipt)

	if err := s.clearBuyerCart(ctx, receipt.UserID); err != nil {
		logger.Error("Failed to clear cart after payment",
			slog.String("sessionRef", sessionRef), slog.String("error", err.Error()))
	}

	s.sendConfirmationEmail(ctx, receipt)

	metrics.RecordReconciliation(source, "confirmed")
	logger.Info("Payment reconciled",
		slog.String("sessionRef", sessionRef),
		slog.String("receiptId", receipt.ID.String()),
		slog.String("source", source),
		slog.Float64("total", receipt.Total))

	return receipt, nil
}

// ConfirmWithRetry is the client-driven fallback for lost webhooks. It polls
// a bounded number of times; each round checks the durable receipt first and
// only then asks the gateway. If the gateway reports the session paid but no
// receipt exists, the receipt is reconstructed from the buyer's durable cart
// before confirming.
func (s *reconcilerService) ConfirmWithRetry(ctx context.Context, claims *models.Claims, sessionRef string) (*models.ConfirmResponse, error) {
	logger := middleware.LoggerFromContext(ctx)

	if claims == nil {
		return nil, appErrors.UnauthenticatedError("Authentication required")
	}

	for attempt := 1; attempt <= s.cfg.Checkout.ConfirmAttempts; attempt++ {
		receipt, err := s.receiptRepo.GetReceiptBySessionRef(ctx, sessionRef)

		switch {
		case err == nil:
			if receipt.UserID != claims.UserID && !claims.Role.IsStaff() {
				return nil, appErrors.ForbiddenError("Receipt belongs to another user")
			}

			if receipt.Status == models.ReceiptStatusPaid {
				return &models.ConfirmResponse{
					Confirmed:  true,
					SessionRef: sessionRef,
					Receipt:    receipt,
				}, nil
			}

		case errors.Is(err, repository.ErrReceiptNotFound):
			// No receipt at all. Either the session ref is bogus or the
			// pending insert was lost; the gateway check below decides.

		default:
			return nil, appErrors.DatabaseError("Failed to load receipt").WithError(err)
		}

		session, err := s.gateway.GetCheckoutSession(sessionRef)
		if err != nil {
			logger.Warn("Gateway session lookup failed",
				slog.String("sessionRef", sessionRef),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		} else if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
			if receipt == nil {
				if err := s.recreateReceipt(ctx, claims, session); err != nil {
					return nil, err
				}
			}

			confirmed, err := s.ConfirmSession(ctx, sessionRef, reconcileSourcePoll)
			if err != nil {
				return nil, err
			}

			return &models.ConfirmResponse{
				Confirmed:  true,
				SessionRef: sessionRef,
				Receipt:    confirmed,
			}, nil
		}

		if attempt < s.cfg.Checkout.ConfirmAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.Checkout.ConfirmInterval):
			}
		}
	}

	metrics.RecordReconciliation(reconcileSourcePoll, "exhausted")
	logger.Warn("Payment confirmation attempts exhausted", slog.String("sessionRef", sessionRef))

	return nil, appErrors.UnconfirmedError(sessionRef)
}

// recreateReceipt rebuilds the pending receipt from the buyer's durable
// cart when the gateway reports a paid session no receipt row exists for.
// A concurrent webhook may insert the same session ref first; the unique
// constraint makes that loss harmless.
func (s *reconcilerService) recreateReceipt(ctx context.Context, claims *models.Claims, session *stripe.CheckoutSession) error {
	cart, err := s.cartRepo.GetCartByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return appErrors.ReceiptNotFoundError(session.ID)
		}

		return appErrors.DatabaseError("Failed to load cart").WithError(err)
	}

	if len(cart.Lines) == 0 {
		return appErrors.ReceiptNotFoundError(session.ID)
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

	if err := s.receiptRepo.CreateReceipt(ctx, receipt); err != nil {
		if errors.Is(err, repository.ErrDuplicateSessionRef) {
			return nil
		}

		return appErrors.DatabaseError("Failed to recreate receipt").WithError(err)
	}

	middleware.LoggerFromContext(ctx).Warn("Recreated missing receipt from durable cart",
		slog.String("sessionRef", session.ID),
		slog.String("userId", claims.UserID.String()))

	return nil
}

func (s *reconcilerService) clearBuyerCart(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil
		}

		return err
	}

	cart.Lines = make(map[string]models.CartLine)
	cart.Total = 0
	cart.UpdatedAt = time.Now()

	return s.cartRepo.UpdateCart(ctx, cart)
}

func (s *reconcilerService) sendConfirmationEmail(ctx context.Context, receipt *models.Receipt) {
	logger := middleware.LoggerFromContext(ctx)

	user, err := s.userRepo.GetUserByID(ctx, receipt.UserID)
	if err != nil {
		logger.Warn("Skipping confirmation email, user lookup failed",
			slog.String("receiptId", receipt.ID.String()), slog.String("error", err.Error()))

		return
	}

	content := fmt.Sprintf(
		"Hi %s,\n\nYour payment of %.2f was received. Your order reference is %s.\n\nThanks for shopping with us.",
		user.Name, receipt.Total, receipt.SessionRef)

	err = s.email.Send(ctx, &models.EmailNotificationRequest{
		Subject:   fmt.Sprintf("Order confirmed: %s", receipt.ID.String()),
		Content:   content,
		Recipient: user.Email,
	})
	if err != nil {
		logger.Warn("Failed to send confirmation email",
			slog.String("receiptId", receipt.ID.String()), slog.String("error", err.Error()))
	}
}

// applyStockDecrements decrements stock for every line of a paid receipt.
// Lines are isolated from each other: one failing SKU never blocks the
// rest, and a decrement that hits the zero floor is recorded as an anomaly
// for manual stock review instead of failing the sale.
func applyStockDecrements(ctx context.Context, productRepo repository.ProductRepository, logger *slog.Logger, receipt *models.Receipt) {
	for _, item := range receipt.Items {
		dec, err := productRepo.DecrementStock(ctx, item.SKU, item.Quantity)
		if err != nil {
			logger.Error("Stock decrement failed",
				slog.String("receiptId", receipt.ID.String()),
				slog.String("sku", item.SKU),
				slog.Int("quantity", item.Quantity),
				slog.String("error", err.Error()))

			continue
		}

		if dec.Clamped {
			metrics.RecordStockAnomaly()
			logger.Error("Stock decrement clamped at zero",
				slog.String("receiptId", receipt.ID.String()),
				slog.String("sku", dec.SKU),
				slog.Int("requested", dec.Requested),
				slog.Int("previous", dec.Previous),
				slog.Int("remaining", dec.Remaining))
		}
	}
}
