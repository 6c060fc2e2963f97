package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gearnix/autoparts-api/internal/models"
	"github.com/gearnix/autoparts-api/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrDuplicateSessionRef surfaces the unique constraint on session_ref.
	// The webhook and the client confirmation path may both try to create
	// the receipt for the same gateway session; exactly one insert wins.
	ErrDuplicateSessionRef = errors.New("receipt already exists for session ref")
)

const uniqueViolation = "23505"

type ReceiptRepository interface {
	CreateReceipt(ctx context.Context, receipt *models.Receipt) error
	GetReceiptByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	GetReceiptBySessionRef(ctx context.Context, sessionRef string) (*models.Receipt, error)
	MarkPaid(ctx context.Context, sessionRef string) (bool, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, deliveredBy, note string) (*models.Receipt, error)
	ListReceiptsByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]*models.Receipt, int, error)
}

type receiptRepository struct {
	DB *sql.DB
}

func NewReceiptRepo(db *sql.DB) ReceiptRepository {
	return &receiptRepository{DB: db}
}

func (r *receiptRepository) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	itemsJSON, err := json.Marshal(receipt.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt items: %w", err)
	}

	query := `
		INSERT INTO receipts (id, session_ref, user_id, items, total, payment_method, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at`

	err = r.DB.QueryRowContext(dbCtx, query,
		receipt.ID, receipt.SessionRef, receipt.UserID, itemsJSON,
		receipt.Total, receipt.PaymentMethod, receipt.Status).
		Scan(&receipt.CreatedAt, &receipt.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateSessionRef
		}

		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	return nil
}

func (r *receiptRepository) GetReceiptByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	return r.getReceipt(ctx, `WHERE id = $1`, id)
}

func (r *receiptRepository) GetReceiptBySessionRef(ctx context.Context, sessionRef string) (*models.Receipt, error) {
	return r.getReceipt(ctx, `WHERE session_ref = $1`, sessionRef)
}

func (r *receiptRepository) getReceipt(ctx context.Context, where string, arg any) (*models.Receipt, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, session_ref, user_id, items, total, payment_method, status,
		       delivered, delivered_by, delivered_at, delivery_note, created_at, updated_at
		FROM receipts ` + where

	receipt := &models.Receipt{}

	var (
		itemsJSON    []byte
		deliveredBy  sql.NullString
		deliveredAt  sql.NullTime
		deliveryNote sql.NullString
	)

	err := r.DB.QueryRowContext(dbCtx, query, arg).
		Scan(&receipt.ID, &receipt.SessionRef, &receipt.UserID, &itemsJSON, &receipt.Total,
			&receipt.PaymentMethod, &receipt.Status, &receipt.Delivered,
			&deliveredBy, &deliveredAt, &deliveryNote, &receipt.CreatedAt, &receipt.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReceiptNotFound
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &receipt.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipt items: %w", err)
	}

	receipt.DeliveredBy = deliveredBy.String
	receipt.DeliveryNote = deliveryNote.String

	if deliveredAt.Valid {
		t := deliveredAt.Time
		receipt.DeliveredAt = &t
	}

	return receipt, nil
}

// MarkPaid is the pending -> paid transition. The update is conditioned on
// the current status, so out of any number of concurrent attempts exactly one
// observes rows affected == 1 and owns the follow-up stock mutation.
func (r *receiptRepository) MarkPaid(ctx context.Context, sessionRef string) (bool, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE receipts
		SET status = $1, updated_at = $2
		WHERE session_ref = $3 AND status = $4`

	result, err := r.DB.ExecContext(dbCtx, query,
		models.ReceiptStatusPaid, time.Now(), sessionRef, models.ReceiptStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to update receipt status: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get updated rows: %w", err)
	}

	return updatedRows == 1, nil
}

func (r *receiptRepository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveredBy, note string) (*models.Receipt, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE receipts
		SET delivered = TRUE, delivered_by = $1, delivered_at = NOW(), delivery_note = $2, updated_at = NOW()
		WHERE id = $3`

	result, err := r.DB.ExecContext(dbCtx, query, deliveredBy, note, id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark receipt delivered: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return nil, ErrReceiptNotFound
	}

	return r.GetReceiptByID(ctx, id)
}

func (r *receiptRepository) ListReceiptsByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]*models.Receipt, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM receipts WHERE user_id = $1`

	if err := r.DB.QueryRowContext(dbCtx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size

	query := `
		SELECT id, session_ref, user_id, items, total, payment_method, status,
		       delivered, delivered_by, delivered_at, delivery_note, created_at, updated_at
		FROM receipts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list receipts: %w", err)
	}

	defer rows.Close()

	var receipts []*models.Receipt

	for rows.Next() {
		receipt := &models.Receipt{}

		var (
			itemsJSON    []byte
			deliveredBy  sql.NullString
			deliveredAt  sql.NullTime
			deliveryNote sql.NullString
		)

		err := rows.Scan(&receipt.ID, &receipt.SessionRef, &receipt.UserID, &itemsJSON, &receipt.Total,
			&receipt.PaymentMethod, &receipt.Status, &receipt.Delivered,
			&deliveredBy, &deliveredAt, &deliveryNote, &receipt.CreatedAt, &receipt.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan receipt: %w", err)
		}

		if err := json.Unmarshal(itemsJSON, &receipt.Items); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal receipt items: %w", err)
		}

		receipt.DeliveredBy = deliveredBy.String
		receipt.DeliveryNote = deliveryNote.String

		if deliveredAt.Valid {
			t := deliveredAt.Time
			receipt.DeliveredAt = &t
		}

		receipts = append(receipts, receipt)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return receipts, total, nil
}
