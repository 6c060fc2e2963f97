package service_test

import (
	"testing"

	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/models"
	repository "github.com/gearnix/autoparts-api/internal/repositories"
	"github.com/gearnix/autoparts-api/internal/repositories/mocks"
	service "github.com/gearnix/autoparts-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetReceipt(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - owner reads own receipt", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockReceiptRepository(t)
		svc := service.NewReceiptService(repo)
		want := paidReceipt(userID)

		repo.On("GetReceiptByID", mock.Anything, want.ID).Return(want, nil)

		// Act
		got, err := svc.GetReceipt(t.Context(), customerClaims(userID), want.ID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
	})

	t.Run("Success - staff reads any receipt", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockReceiptRepository(t)
		svc := service.NewReceiptService(repo)
		want := paidReceipt(uuid.New())

		repo.On("GetReceiptByID", mock.Anything, want.ID).Return(want, nil)

		// Act
		got, err := svc.GetReceipt(t.Context(), staffClaims(userID), want.ID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
	})

	t.Run("Failure - customer reads another user's receipt", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockReceiptRepository(t)
		svc := service.NewReceiptService(repo)
		other := paidReceipt(uuid.New())

		repo.On("GetReceiptByID", mock.Anything, other.ID).Return(other, nil)

		// Act
		got, err := svc.GetReceipt(t.Context(), customerClaims(userID), other.ID)

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeForbidden, appErr.Code)
		assert.Nil(t, got)
	})

	t.Run("Failure - not found", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockReceiptRepository(t)
		svc := service.NewReceiptService(repo)
		id := uuid.New()

		repo.On("GetReceiptByID", mock.Anything, id).Return(nil, repository.ErrReceiptNotFound)

		// Act
		got, err := svc.GetReceipt(t.Context(), customerClaims(userID), id)

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
		assert.Nil(t, got)
	})
}

func TestListReceipts(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - scoped to the caller", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockReceiptRepository(t)
		svc := service.NewReceiptService(repo)

		repo.On("ListReceiptsByUser", mock.Anything, userID, 1, 10).
			Return([]*models.Receipt{paidReceipt(userID)}, 1, nil)

		// Act
		receipts, total, err := svc.ListReceipts(t.Context(), customerClaims(userID), 1, 10)

		// Assert
		require.NoError(t, err)
		assert.Len(t, receipts, 1)
		assert.Equal(t, 1, total)
	})

	t.Run("Success - out-of-range paging falls back to defaults", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockReceiptRepository(t)
		svc := service.NewReceiptService(repo)

		repo.On("ListReceiptsByUser", mock.Anything, userID, 1, 10).
			Return([]*models.Receipt{}, 0, nil)

		// Act
		_, _, err := svc.ListReceipts(t.Context(), customerClaims(userID), 0, 500)

		// Assert
		require.NoError(t, err)
	})

	t.Run("Failure - unauthenticated", func(t *testing.T) {
		repo := mocks.NewMockReceiptRepository(t)
		svc := service.NewReceiptService(repo)

		receipts, _, err := svc.ListReceipts(t.Context(), nil, 1, 10)

		require.Error(t, err)
		assert.Nil(t, receipts)
	})
}

func TestMarkDeliveredService(t *testing.T) {
	staffID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockReceiptRepository(t)
		svc := service.NewReceiptService(repo)
		receipt := paidReceipt(uuid.New())

		delivered := *receipt
		delivered.Delivered = true

		repo.On("GetReceiptByID", mock.Anything, receipt.ID).Return(receipt, nil)
		repo.On("MarkDelivered", mock.Anything, receipt.ID, "counter@example.com", "picked up at counter").
			Return(&delivered, nil)

		// Act
		got, err := svc.MarkDelivered(t.Context(), staffClaims(staffID), receipt.ID,
			&models.MarkDeliveredRequest{Note: "picked up at counter"})

		// Assert
		require.NoError(t, err)
		assert.True(t, got.Delivered)
	})

	t.Run("Failure - customers cannot mark delivery", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockReceiptRepository(t)
		svc := service.NewReceiptService(repo)

		// Act
		got, err := svc.MarkDelivered(t.Context(), customerClaims(uuid.New()), uuid.New(),
			&models.MarkDeliveredRequest{})

		// Assert
		require.Error(t, err)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeForbidden, appErr.Code)
		assert.Nil(t, got)
		repo.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - pending receipt cannot be delivered", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockReceiptRepository(t)
		svc := service.NewReceiptService(repo)
		receipt := pendingReceipt(uuid.New())

		repo.On("GetReceiptByID", mock.Anything, receipt.ID).Return(receipt, nil)

		// Act
		got, err := svc.MarkDelivered(t.Context(), staffClaims(staffID), receipt.ID,
			&models.MarkDeliveredRequest{})

		// Assert
		require.Error(t, err)
		assert.Nil(t, got)
		repo.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - already delivered", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockReceiptRepository(t)
		svc := service.NewReceiptService(repo)
		receipt := paidReceipt(uuid.New())
		receipt.Delivered = true

		repo.On("GetReceiptByID", mock.Anything, receipt.ID).Return(receipt, nil)

		// Act
		got, err := svc.MarkDelivered(t.Context(), staffClaims(staffID), receipt.ID,
			&models.MarkDeliveredRequest{})

		// Assert
		require.Error(t, err)
		assert.Nil(t, got)
	})
}
