package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine denormalizes the product's display data at the moment it is
// added, so the cart renders without a catalog round-trip. The price is
// still re-validated against the catalog at checkout time.
type CartLine struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// Cart is the per-user pending purchase. Lines are keyed by SKU, so
// re-adding a product merges into the existing line.
type Cart struct {
	ID        uuid.UUID           `json:"id"`
	UserID    uuid.UUID           `json:"user_id"`
	Lines     map[string]CartLine `json:"lines"`
	Total     float64             `json:"total"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type AddLineRequest struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type UpdateQuantityRequest struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity"`
}
