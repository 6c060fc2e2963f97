package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/gearnix/autoparts-api/internal/config"
	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/models"
	repository "github.com/gearnix/autoparts-api/internal/repositories"
	"github.com/gearnix/autoparts-api/internal/repositories/mocks"
	service "github.com/gearnix/autoparts-api/internal/services"
	stripeMocks "github.com/gearnix/autoparts-api/pkg/stripe/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
)

func testConfig() *config.Config {
	return &config.Config{
		Stripe: config.Stripe{
			Currency:   "usd",
			SuccessURL: "https://shop.example.com/success",
			CancelURL:  "https://shop.example.com/cancel",
		},
		Checkout: config.Checkout{
			LockTTL:         30 * time.Second,
			ConfirmAttempts: 3,
			ConfirmInterval: time.Millisecond,
		},
	}
}

func customerClaims(userID uuid.UUID) *models.Claims {
	return &models.Claims{UserID: userID, Email: "buyer@example.com", Role: models.RoleCustomer}
}

func staffClaims(userID uuid.UUID) *models.Claims {
	return &models.Claims{UserID: userID, Email: "counter@example.com", Role: models.RoleStaff}
}

func cartWithLine(userID uuid.UUID) *models.Cart {
	cart := emptyCart(userID)
	cart.Lines["BRK-1001"] = models.CartLine{
		SKU: "BRK-1001", Name: "Front Brake Pads", UnitPrice: 49.99, Quantity: 2, Subtotal: 99.98,
	}
	cart.Total = 99.98

	return cart
}

type checkoutFixture struct {
	cartRepo    *mocks.MockCartRepository
	productRepo *mocks.MockProductRepository
	receiptRepo *mocks.MockReceiptRepository
	locks       *mocks.MockCheckoutLockRepository
	gateway     *stripeMocks.MockClient
	svc         service.CheckoutService
}

func setupCheckout(t *testing.T) *checkoutFixture {
	t.Helper()

	f := &checkoutFixture{
		cartRepo:    mocks.NewMockCartRepository(t),
		productRepo: mocks.NewMockProductRepository(t),
		receiptRepo: mocks.NewMockReceiptRepository(t),
		locks:       mocks.NewMockCheckoutLockRepository(t),
		gateway:     stripeMocks.NewMockClient(t),
	}
	f.svc = service.NewCheckoutService(f.cartRepo, f.productRepo, f.receiptRepo, f.locks, f.gateway, testConfig())

	return f
}

func TestCheckoutCard(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - pending receipt recorded before redirect", func(t *testing.T) {
		// Arrange
		f := setupCheckout(t)

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWithLine(userID), nil)
		f.productRepo.On("GetProductBySKU", mock.Anything, "BRK-1001").
			Return(testProduct("BRK-1001", 49.99, 10), nil)
		f.gateway.On("CreateCheckoutSession", mock.AnythingOfType("*stripe.CheckoutSessionParams")).
			Return(&stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/pay/cs_test_123"}, nil)

		var created *models.Receipt

		f.receiptRepo.On("CreateReceipt", mock.Anything, mock.AnythingOfType("*models.Receipt")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*models.Receipt)
			}).
			Return(nil)

		// Act
		resp, err := f.svc.CheckoutCard(t.Context(), customerClaims(userID), &models.CheckoutCardRequest{})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "cs_test_123", resp.SessionRef)
		assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_123", resp.RedirectURL)
		assert.InEpsilon(t, 99.98, resp.Total, 0.0001)

		require.NotNil(t, created)
		assert.Equal(t, models.ReceiptStatusPending, created.Status)
		assert.Equal(t, models.PaymentMethodCard, created.PaymentMethod)
		assert.Equal(t, "cs_test_123", created.SessionRef)
		assert.Len(t, created.Items, 1)
	})

	t.Run("Failure - unauthenticated", func(t *testing.T) {
		f := setupCheckout(t)

		resp, err := f.svc.CheckoutCard(t.Context(), nil, &models.CheckoutCardRequest{})

		require.Error(t, err)
		assert.Nil(t, resp)
	})

	t.Run("Failure - empty cart", func(t *testing.T) {
		// Arrange
		f := setupCheckout(t)

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(emptyCart(userID), nil)

		// Act
		resp, err := f.svc.CheckoutCard(t.Context(), customerClaims(userID), &models.CheckoutCardRequest{})

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeEmptyCart, appErr.Code)
		assert.Nil(t, resp)
	})

	t.Run("Failure - insufficient stock is rejected up front", func(t *testing.T) {
		// Arrange
		f := setupCheckout(t)

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWithLine(userID), nil)
		f.productRepo.On("GetProductBySKU", mock.Anything, "BRK-1001").
			Return(testProduct("BRK-1001", 49.99, 1), nil)

		// Act
		resp, err := f.svc.CheckoutCard(t.Context(), customerClaims(userID), &models.CheckoutCardRequest{})

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeInsufficientStock, appErr.Code)
		assert.Nil(t, resp)
	})

	t.Run("Failure - gateway error surfaces without a receipt", func(t *testing.T) {
		// Arrange
		f := setupCheckout(t)

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWithLine(userID), nil)
		f.productRepo.On("GetProductBySKU", mock.Anything, "BRK-1001").
			Return(testProduct("BRK-1001", 49.99, 10), nil)
		f.gateway.On("CreateCheckoutSession", mock.AnythingOfType("*stripe.CheckoutSessionParams")).
			Return(nil, errors.New("stripe unavailable"))

		// Act
		resp, err := f.svc.CheckoutCard(t.Context(), customerClaims(userID), &models.CheckoutCardRequest{})

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeGatewayError, appErr.Code)
		assert.Nil(t, resp)
		f.receiptRepo.AssertNotCalled(t, "CreateReceipt", mock.Anything, mock.Anything)
	})

	t.Run("Failure - receipt persistence failure fails the checkout", func(t *testing.T) {
		// Arrange
		f := setupCheckout(t)

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWithLine(userID), nil)
		f.productRepo.On("GetProductBySKU", mock.Anything, "BRK-1001").
			Return(testProduct("BRK-1001", 49.99, 10), nil)
		f.gateway.On("CreateCheckoutSession", mock.AnythingOfType("*stripe.CheckoutSessionParams")).
			Return(&stripe.CheckoutSession{ID: "cs_test_123", URL: "https://example.com"}, nil)
		f.receiptRepo.On("CreateReceipt", mock.Anything, mock.AnythingOfType("*models.Receipt")).
			Return(errors.New("insert failed"))

		// Act
		resp, err := f.svc.CheckoutCard(t.Context(), customerClaims(userID), &models.CheckoutCardRequest{})

		// Assert
		require.Error(t, err, "no redirect may be handed out without a durable pending receipt")
		assert.Nil(t, resp)
	})
}

func TestCheckoutCash(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - paid receipt, immediate stock decrement, cart cleared", func(t *testing.T) {
		// Arrange
		f := setupCheckout(t)

		f.locks.On("AcquireCheckoutLock", mock.Anything, userID.String()).Return(true, nil)
		f.locks.On("ReleaseCheckoutLock", mock.Anything, userID.String()).Return(nil)
		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWithLine(userID), nil)
		f.productRepo.On("GetProductBySKU", mock.Anything, "BRK-1001").
			Return(testProduct("BRK-1001", 49.99, 10), nil)
		f.receiptRepo.On("CreateReceipt", mock.Anything, mock.AnythingOfType("*models.Receipt")).Return(nil)
		f.productRepo.On("DecrementStock", mock.Anything, "BRK-1001", 2).
			Return(&repository.StockDecrement{SKU: "BRK-1001", Requested: 2, Previous: 10, Remaining: 8}, nil)
		f.cartRepo.On("UpdateCart", mock.Anything, mock.AnythingOfType("*models.Cart")).Return(nil)

		// Act
		receipt, err := f.svc.CheckoutCash(t.Context(), staffClaims(userID))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.ReceiptStatusPaid, receipt.Status)
		assert.Equal(t, models.PaymentMethodCash, receipt.PaymentMethod)
		assert.Contains(t, receipt.SessionRef, "cash_")
	})

	t.Run("Failure - customers cannot use the cash path", func(t *testing.T) {
		// Arrange
		f := setupCheckout(t)

		// Act
		receipt, err := f.svc.CheckoutCash(t.Context(), customerClaims(userID))

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeForbidden, appErr.Code)
		assert.Nil(t, receipt)
		f.locks.AssertNotCalled(t, "AcquireCheckoutLock", mock.Anything, mock.Anything)
	})

	t.Run("Failure - concurrent checkout holds the lock", func(t *testing.T) {
		// Arrange
		f := setupCheckout(t)

		f.locks.On("AcquireCheckoutLock", mock.Anything, userID.String()).Return(false, nil)

		// Act
		receipt, err := f.svc.CheckoutCash(t.Context(), staffClaims(userID))

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeCheckoutInFlight, appErr.Code)
		assert.Nil(t, receipt)
		f.receiptRepo.AssertNotCalled(t, "CreateReceipt", mock.Anything, mock.Anything)
	})

	t.Run("Failure - empty cart releases the lock", func(t *testing.T) {
		// Arrange
		f := setupCheckout(t)

		f.locks.On("AcquireCheckoutLock", mock.Anything, userID.String()).Return(true, nil)
		f.locks.On("ReleaseCheckoutLock", mock.Anything, userID.String()).Return(nil)
		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(nil, repository.ErrCartNotFound)

		// Act
		receipt, err := f.svc.CheckoutCash(t.Context(), staffClaims(userID))

		// Assert
		require.Error(t, err)
		assert.Nil(t, receipt)
	})
}
