package service

import (
	"context"
	"errors"

	appErrors "github.com/gearnix/autoparts-api/internal/errors"
	"github.com/gearnix/autoparts-api/internal/models"
	repository "github.com/gearnix/autoparts-api/internal/repositories"
	"github.com/google/uuid"
)

// ReceiptService exposes sale history. Customers only see their own
// receipts; staff see everything and additionally record counter pickups.
type ReceiptService interface {
	GetReceipt(ctx context.Context, claims *models.Claims, id uuid.UUID) (*models.Receipt, error)
	GetReceiptBySessionRef(ctx context.Context, claims *models.Claims, sessionRef string) (*models.Receipt, error)
	ListReceipts(ctx context.Context, claims *models.Claims, page, pageSize int) ([]*models.Receipt, int, error)
	MarkDelivered(ctx context.Context, claims *models.Claims, id uuid.UUID, req *models.MarkDeliveredRequest) (*models.Receipt, error)
}

type receiptService struct {
	repo repository.ReceiptRepository
}

func NewReceiptService(repo repository.ReceiptRepository) ReceiptService {
	return &receiptService{repo: repo}
}

func (s *receiptService) GetReceipt(ctx context.Context, claims *models.Claims, id uuid.UUID) (*models.Receipt, error) {
	receipt, err := s.repo.GetReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReceiptNotFound) {
			return nil, appErrors.NotFoundError("Receipt not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to load receipt").WithError(err)
	}

	return s.authorize(claims, receipt)
}

func (s *receiptService) GetReceiptBySessionRef(ctx context.Context, claims *models.Claims, sessionRef string) (*models.Receipt, error) {
	receipt, err := s.repo.GetReceiptBySessionRef(ctx, sessionRef)
	if err != nil {
		if errors.Is(err, repository.ErrReceiptNotFound) {
			return nil, appErrors.ReceiptNotFoundError(sessionRef)
		}

		return nil, appErrors.DatabaseError("Failed to load receipt").WithError(err)
	}

	return s.authorize(claims, receipt)
}

func (s *receiptService) ListReceipts(ctx context.Context, claims *models.Claims, page, pageSize int) ([]*models.Receipt, int, error) {
	if claims == nil {
		return nil, 0, appErrors.UnauthenticatedError("Authentication required")
	}

	if page < 1 {
		page = 1
	}

	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	receipts, total, err := s.repo.ListReceiptsByUser(ctx, claims.UserID, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to list receipts").WithError(err)
	}

	return receipts, total, nil
}

// MarkDelivered records that staff handed the goods over at the counter.
// Only paid receipts can be delivered; delivery is append-only bookkeeping
// and never changes the payment status.
func (s *receiptService) MarkDelivered(ctx context.Context, claims *models.Claims, id uuid.UUID, req *models.MarkDeliveredRequest) (*models.Receipt, error) {
	if claims == nil {
		return nil, appErrors.UnauthenticatedError("Authentication required")
	}

	if !claims.Role.IsStaff() {
		return nil, appErrors.ForbiddenError("Only staff can mark receipts delivered")
	}

	receipt, err := s.repo.GetReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReceiptNotFound) {
			return nil, appErrors.NotFoundError("Receipt not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to load receipt").WithError(err)
	}

	if receipt.Status != models.ReceiptStatusPaid {
		return nil, appErrors.BadRequestError("Receipt is not paid yet")
	}

	if receipt.Delivered {
		return nil, appErrors.BadRequestError("Receipt is already marked delivered")
	}

	updated, err := s.repo.MarkDelivered(ctx, id, claims.Email, req.Note)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to mark receipt delivered").WithError(err)
	}

	return updated, nil
}

func (s *receiptService) authorize(claims *models.Claims, receipt *models.Receipt) (*models.Receipt, error) {
	if claims == nil {
		return nil, appErrors.UnauthenticatedError("Authentication required")
	}

	if receipt.UserID != claims.UserID && !claims.Role.IsStaff() {
		return nil, appErrors.ForbiddenError("Receipt belongs to another user")
	}

	return receipt, nil
}
