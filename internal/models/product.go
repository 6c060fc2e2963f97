package models

import "time"

// Product is a catalog entry keyed by SKU. StockCount is only ever mutated
// through the reconciler's guarded decrement or an admin update.
type Product struct {
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Price       float64   `json:"price"`
	StockCount  int       `json:"stock_count"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateProductRequest struct {
	SKU         string  `json:"sku" validate:"required,min=3,max=50"`
	Name        string  `json:"name" validate:"required,min=3,max=200"`
	Brand       string  `json:"brand" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty" validate:"omitempty,url"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	StockCount  int     `json:"stock_count" validate:"gte=0"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=3,max=200"`
	Brand       *string  `json:"brand,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Description *string  `json:"description,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty" validate:"omitempty,url"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	StockCount  *int     `json:"stock_count,omitempty" validate:"omitempty,gte=0"`
	Active      *bool    `json:"active,omitempty"`
}
