package service_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/models"
	repository "github.com/gearnix/autoparts-api/internal/repositories"
	"github.com/gearnix/autoparts-api/internal/repositories/mocks"
	service "github.com/gearnix/autoparts-api/internal/services"
	sendgridMocks "github.com/gearnix/autoparts-api/pkg/sendgrid/mocks"
	stripeClient "github.com/gearnix/autoparts-api/pkg/stripe"
	stripeMocks "github.com/gearnix/autoparts-api/pkg/stripe/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
)

type reconcilerFixture struct {
	receiptRepo *mocks.MockReceiptRepository
	productRepo *mocks.MockProductRepository
	cartRepo    *mocks.MockCartRepository
	userRepo    *mocks.MockUserRepository
	gateway     *stripeMocks.MockClient
	email       *sendgridMocks.MockEmailService
	svc         service.ReconcilerService
}

func setupReconciler(t *testing.T) *reconcilerFixture {
	t.Helper()

	f := &reconcilerFixture{
		receiptRepo: mocks.NewMockReceiptRepository(t),
		productRepo: mocks.NewMockProductRepository(t),
		cartRepo:    mocks.NewMockCartRepository(t),
		userRepo:    mocks.NewMockUserRepository(t),
		gateway:     stripeMocks.NewMockClient(t),
		email:       sendgridMocks.NewMockEmailService(t),
	}
	f.svc = service.NewReconcilerService(
		f.receiptRepo, f.productRepo, f.cartRepo, f.userRepo, f.gateway, f.email, testConfig())

	return f
}

func pendingReceipt(userID uuid.UUID) *models.Receipt {
	return &models.Receipt{
		ID:         uuid.New(),
		SessionRef: "cs_test_abc123",
		UserID:     userID,
		Items: []models.ReceiptItem{
			{SKU: "BRK-1001", Name: "Front Brake Pads", UnitPrice: 49.99, Quantity: 2, Subtotal: 99.98},
			{SKU: "FLT-2002", Name: "Oil Filter", UnitPrice: 12.50, Quantity: 1, Subtotal: 12.50},
		},
		Total:         112.48,
		PaymentMethod: models.PaymentMethodCard,
		Status:        models.ReceiptStatusPending,
	}
}

func paidReceipt(userID uuid.UUID) *models.Receipt {
	receipt := pendingReceipt(userID)
	receipt.Status = models.ReceiptStatusPaid

	return receipt
}

// expectPaidSideEffects wires every call the winning confirmation makes
// after flipping the receipt: per-line stock decrements, clearing the
// buyer's cart and the confirmation email.
func expectPaidSideEffects(f *reconcilerFixture, userID uuid.UUID) {
	f.productRepo.On("DecrementStock", mock.Anything, "BRK-1001", 2).
		Return(&repository.StockDecrement{SKU: "BRK-1001", Requested: 2, Previous: 10, Remaining: 8}, nil).Once()
	f.productRepo.On("DecrementStock", mock.Anything, "FLT-2002", 1).
		Return(&repository.StockDecrement{SKU: "FLT-2002", Requested: 1, Previous: 5, Remaining: 4}, nil).Once()
	f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWithLine(userID), nil)
	f.cartRepo.On("UpdateCart", mock.Anything, mock.AnythingOfType("*models.Cart")).Return(nil)
	f.userRepo.On("GetUserByID", mock.Anything, userID).
		Return(&models.User{ID: userID, Name: "Pat", Email: "buyer@example.com"}, nil)
	f.email.On("Send", mock.Anything, mock.AnythingOfType("*models.EmailNotificationRequest")).Return(nil)
}

func TestProcessWebhook(t *testing.T) {
	userID := uuid.New()

	t.Run("Failure - invalid signature", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)
		payload := []byte(`{}`)

		f.gateway.On("VerifyWebhookSignature", payload, "bad_sig").
			Return(stripeClient.Event{}, errors.New("signature mismatch"))

		// Act
		err := f.svc.ProcessWebhook(t.Context(), payload, "bad_sig")

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeInvalidSignature, appErr.Code)
	})

	t.Run("Success - unrelated event type is acknowledged", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)
		payload := []byte(`{}`)

		f.gateway.On("VerifyWebhookSignature", payload, "sig").
			Return(stripeClient.Event{Type: "invoice.payment_succeeded"}, nil)

		// Act
		err := f.svc.ProcessWebhook(t.Context(), payload, "sig")

		// Assert
		require.NoError(t, err)
		f.receiptRepo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
	})

	t.Run("Success - completed session is confirmed", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)
		payload := []byte(`{}`)

		f.gateway.On("VerifyWebhookSignature", payload, "sig").
			Return(stripeClient.Event{
				Type: stripeClient.EventCheckoutCompleted,
				Data: &stripe.EventData{Raw: json.RawMessage(`{"id": "cs_test_abc123"}`)},
			}, nil)
		f.receiptRepo.On("MarkPaid", mock.Anything, "cs_test_abc123").Return(true, nil)
		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(paidReceipt(userID), nil)
		expectPaidSideEffects(f, userID)

		// Act
		err := f.svc.ProcessWebhook(t.Context(), payload, "sig")

		// Assert
		require.NoError(t, err)
	})
}

func TestConfirmSession(t *testing.T) {
	userID := uuid.New()

	t.Run("Winner - runs each stock decrement exactly once", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)

		f.receiptRepo.On("MarkPaid", mock.Anything, "cs_test_abc123").Return(true, nil)
		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(paidReceipt(userID), nil)
		expectPaidSideEffects(f, userID)

		// Act
		receipt, err := f.svc.ConfirmSession(t.Context(), "cs_test_abc123", "webhook")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.ReceiptStatusPaid, receipt.Status)
		f.productRepo.AssertNumberOfCalls(t, "DecrementStock", 2)
	})

	t.Run("Loser - already paid receipt returned without side effects", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)

		f.receiptRepo.On("MarkPaid", mock.Anything, "cs_test_abc123").Return(false, nil)
		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(paidReceipt(userID), nil)

		// Act
		receipt, err := f.svc.ConfirmSession(t.Context(), "cs_test_abc123", "poll")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.ReceiptStatusPaid, receipt.Status)
		f.productRepo.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
		f.email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("Failure - unknown session ref", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)

		f.receiptRepo.On("MarkPaid", mock.Anything, "cs_missing").Return(false, nil)
		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_missing").
			Return(nil, repository.ErrReceiptNotFound)

		// Act
		receipt, err := f.svc.ConfirmSession(t.Context(), "cs_missing", "webhook")

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeReceiptNotFound, appErr.Code)
		assert.Nil(t, receipt)
	})

	t.Run("Winner - clamped decrement does not fail the sale", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)

		f.receiptRepo.On("MarkPaid", mock.Anything, "cs_test_abc123").Return(true, nil)
		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(paidReceipt(userID), nil)
		f.productRepo.On("DecrementStock", mock.Anything, "BRK-1001", 2).
			Return(&repository.StockDecrement{SKU: "BRK-1001", Requested: 2, Previous: 1, Remaining: 0, Clamped: true}, nil).Once()
		f.productRepo.On("DecrementStock", mock.Anything, "FLT-2002", 1).
			Return(nil, errors.New("deadlock detected")).Once()
		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWithLine(userID), nil)
		f.cartRepo.On("UpdateCart", mock.Anything, mock.AnythingOfType("*models.Cart")).Return(nil)
		f.userRepo.On("GetUserByID", mock.Anything, userID).
			Return(&models.User{ID: userID, Name: "Pat", Email: "buyer@example.com"}, nil)
		f.email.On("Send", mock.Anything, mock.AnythingOfType("*models.EmailNotificationRequest")).Return(nil)

		// Act
		receipt, err := f.svc.ConfirmSession(t.Context(), "cs_test_abc123", "webhook")

		// Assert
		require.NoError(t, err, "inventory anomalies are logged for review, never bounced to the payer")
		assert.Equal(t, models.ReceiptStatusPaid, receipt.Status)
	})
}

func TestConfirmWithRetry(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - receipt already paid, gateway not consulted", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)

		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(paidReceipt(userID), nil)

		// Act
		resp, err := f.svc.ConfirmWithRetry(t.Context(), customerClaims(userID), "cs_test_abc123")

		// Assert
		require.NoError(t, err)
		assert.True(t, resp.Confirmed)
		assert.Equal(t, "cs_test_abc123", resp.SessionRef)
		f.gateway.AssertNotCalled(t, "GetCheckoutSession", mock.Anything)
	})

	t.Run("Failure - receipt owned by another user", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)

		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(paidReceipt(uuid.New()), nil)

		// Act
		resp, err := f.svc.ConfirmWithRetry(t.Context(), customerClaims(userID), "cs_test_abc123")

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeForbidden, appErr.Code)
		assert.Nil(t, resp)
	})

	t.Run("Success - staff may confirm on behalf of the buyer", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)

		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(paidReceipt(userID), nil)

		// Act
		resp, err := f.svc.ConfirmWithRetry(t.Context(), staffClaims(uuid.New()), "cs_test_abc123")

		// Assert
		require.NoError(t, err)
		assert.True(t, resp.Confirmed)
	})

	t.Run("Success - pending receipt settles when the gateway reports paid", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)

		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(pendingReceipt(userID), nil).Once()
		f.gateway.On("GetCheckoutSession", "cs_test_abc123").
			Return(&stripe.CheckoutSession{
				ID:            "cs_test_abc123",
				PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			}, nil)
		f.receiptRepo.On("MarkPaid", mock.Anything, "cs_test_abc123").Return(true, nil)
		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(paidReceipt(userID), nil).Once()
		expectPaidSideEffects(f, userID)

		// Act
		resp, err := f.svc.ConfirmWithRetry(t.Context(), customerClaims(userID), "cs_test_abc123")

		// Assert
		require.NoError(t, err)
		assert.True(t, resp.Confirmed)
		assert.Equal(t, models.ReceiptStatusPaid, resp.Receipt.Status)
	})

	t.Run("Success - missing receipt is rebuilt from the durable cart", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)

		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(nil, repository.ErrReceiptNotFound).Once()
		f.gateway.On("GetCheckoutSession", "cs_test_abc123").
			Return(&stripe.CheckoutSession{
				ID:            "cs_test_abc123",
				PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			}, nil)
		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWithLine(userID), nil)
		f.receiptRepo.On("CreateReceipt", mock.Anything, mock.AnythingOfType("*models.Receipt")).Return(nil)
		f.receiptRepo.On("MarkPaid", mock.Anything, "cs_test_abc123").Return(true, nil)
		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(paidReceipt(userID), nil).Once()
		f.cartRepo.On("UpdateCart", mock.Anything, mock.AnythingOfType("*models.Cart")).Return(nil)
		f.productRepo.On("DecrementStock", mock.Anything, "BRK-1001", 2).
			Return(&repository.StockDecrement{SKU: "BRK-1001", Requested: 2, Previous: 10, Remaining: 8}, nil)
		f.productRepo.On("DecrementStock", mock.Anything, "FLT-2002", 1).
			Return(&repository.StockDecrement{SKU: "FLT-2002", Requested: 1, Previous: 5, Remaining: 4}, nil)
		f.userRepo.On("GetUserByID", mock.Anything, userID).
			Return(&models.User{ID: userID, Name: "Pat", Email: "buyer@example.com"}, nil)
		f.email.On("Send", mock.Anything, mock.AnythingOfType("*models.EmailNotificationRequest")).Return(nil)

		// Act
		resp, err := f.svc.ConfirmWithRetry(t.Context(), customerClaims(userID), "cs_test_abc123")

		// Assert
		require.NoError(t, err)
		assert.True(t, resp.Confirmed)
	})

	t.Run("Success - losing the insert race to the webhook is harmless", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)

		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(nil, repository.ErrReceiptNotFound).Once()
		f.gateway.On("GetCheckoutSession", "cs_test_abc123").
			Return(&stripe.CheckoutSession{
				ID:            "cs_test_abc123",
				PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			}, nil)
		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWithLine(userID), nil)
		f.receiptRepo.On("CreateReceipt", mock.Anything, mock.AnythingOfType("*models.Receipt")).
			Return(repository.ErrDuplicateSessionRef)
		// The webhook's insert won and may have settled already.
		f.receiptRepo.On("MarkPaid", mock.Anything, "cs_test_abc123").Return(false, nil)
		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(paidReceipt(userID), nil).Once()

		// Act
		resp, err := f.svc.ConfirmWithRetry(t.Context(), customerClaims(userID), "cs_test_abc123")

		// Assert
		require.NoError(t, err)
		assert.True(t, resp.Confirmed)
		f.productRepo.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Exhaustion - unpaid after all attempts returns 202", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)

		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(pendingReceipt(userID), nil).Times(3)
		f.gateway.On("GetCheckoutSession", "cs_test_abc123").
			Return(&stripe.CheckoutSession{
				ID:            "cs_test_abc123",
				PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
			}, nil).Times(3)

		// Act
		resp, err := f.svc.ConfirmWithRetry(t.Context(), customerClaims(userID), "cs_test_abc123")

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeUnconfirmed, appErr.Code)
		assert.Equal(t, http.StatusAccepted, appErr.StatusCode)
		assert.Contains(t, appErr.Message, "cs_test_abc123")
		assert.Nil(t, resp)
	})

	t.Run("Exhaustion - gateway lookup failures keep polling", func(t *testing.T) {
		// Arrange
		f := setupReconciler(t)

		f.receiptRepo.On("GetReceiptBySessionRef", mock.Anything, "cs_test_abc123").
			Return(pendingReceipt(userID), nil).Times(3)
		f.gateway.On("GetCheckoutSession", "cs_test_abc123").
			Return(nil, errors.New("gateway timeout")).Times(3)

		// Act
		resp, err := f.svc.ConfirmWithRetry(t.Context(), customerClaims(userID), "cs_test_abc123")

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeUnconfirmed, appErr.Code)
		assert.Nil(t, resp)
	})

	t.Run("Failure - unauthenticated", func(t *testing.T) {
		f := setupReconciler(t)

		resp, err := f.svc.ConfirmWithRetry(t.Context(), nil, "cs_test_abc123")

		require.Error(t, err)
		assert.Nil(t, resp)
	})
}
