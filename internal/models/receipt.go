package models

import (
	"time"

	"github.com/google/uuid"
)

type ReceiptStatus string

const (
	ReceiptStatusPending ReceiptStatus = "pending"
	ReceiptStatusPaid    ReceiptStatus = "paid"
)

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
)

// ReceiptItem is a point-in-time copy of a cart line. Receipts never join
// back to the catalog, so later price or name edits leave history intact.
type ReceiptItem struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// Receipt is the durable record of a sale, keyed by the payment gateway's
// session reference. Status only ever moves pending -> paid.
type Receipt struct {
	ID            uuid.UUID     `json:"id"`
	SessionRef    string        `json:"session_ref"`
	UserID        uuid.UUID     `json:"user_id"`
	Items         []ReceiptItem `json:"items"`
	Total         float64       `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        ReceiptStatus `json:"status"`
	Delivered     bool          `json:"delivered"`
	DeliveredBy   string        `json:"delivered_by,omitempty"`
	DeliveredAt   *time.Time    `json:"delivered_at,omitempty"`
	DeliveryNote  string        `json:"delivery_note,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type CheckoutCardRequest struct {
	SuccessURL string `json:"success_url,omitempty" validate:"omitempty,url"`
	CancelURL  string `json:"cancel_url,omitempty" validate:"omitempty,url"`
}

type CheckoutCardResponse struct {
	SessionRef  string  `json:"session_ref"`
	RedirectURL string  `json:"redirect_url"`
	Total       float64 `json:"total"`
}

type MarkDeliveredRequest struct {
	Note string `json:"note,omitempty" validate:"max=500"`
}

type ConfirmResponse struct {
	Confirmed  bool     `json:"confirmed"`
	SessionRef string   `json:"session_ref"`
	Receipt    *Receipt `json:"receipt,omitempty"`
	Message    string   `json:"message,omitempty"`
}
