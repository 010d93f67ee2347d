package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Categories ──────────────────────────────────────────────────────────────

type CategoryRequest struct {
	Name        string  `json:"name"        validate:"required,min=2,max=100"`
	Description *string `json:"description"`
}

type CategoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// ─── Discounts ───────────────────────────────────────────────────────────────

type DiscountRequest struct {
	Name           string          `json:"name"            validate:"required,min=2,max=100"`
	Percentage     decimal.Decimal `json:"percentage"      validate:"gt=0,lte=100"`
	IsActive       *bool           `json:"is_active"`
	ExpirationDate string          `json:"expiration_date" validate:"required,datetime=2006-01-02"`
}

type DiscountResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Percentage     decimal.Decimal `json:"percentage"`
	IsActive       bool            `json:"is_active"`
	ExpirationDate string          `json:"expiration_date"`
}

// ─── Products ────────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name          string          `json:"name"           validate:"required,min=2,max=200"`
	Description   *string         `json:"description"`
	PhotoURL      *string         `json:"photo_url"      validate:"omitempty,url"`
	Stock         int             `json:"stock"          validate:"min=0"`
	StockMinimum  int             `json:"stock_minimum"  validate:"min=0"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"gt=0"`
	SalePrice     decimal.Decimal `json:"sale_price"     validate:"gt=0"`
	IsActive      *bool           `json:"is_active"`
	CategoryID    string          `json:"category_id"    validate:"required,uuid"`
	DiscountID    *string         `json:"discount_id"    validate:"omitempty,uuid"`
}

// UpdateProductRequest deliberately has no stock field: stock only moves
// through purchases, sales and orders.
type UpdateProductRequest struct {
	Name          *string          `json:"name"           validate:"omitempty,min=2,max=200"`
	Description   *string          `json:"description"`
	PhotoURL      *string          `json:"photo_url"      validate:"omitempty,url"`
	StockMinimum  *int             `json:"stock_minimum"  validate:"omitempty,min=0"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SalePrice     *decimal.Decimal `json:"sale_price"`
	IsActive      *bool            `json:"is_active"`
	CategoryID    *string          `json:"category_id"    validate:"omitempty,uuid"`
	DiscountID    *string          `json:"discount_id"    validate:"omitempty,uuid"`
	ClearDiscount bool             `json:"clear_discount"`
}

type ProductResponse struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Description        *string           `json:"description"`
	PhotoURL           *string           `json:"photo_url"`
	Stock              int               `json:"stock"`
	StockMinimum       int               `json:"stock_minimum"`
	PurchasePrice      decimal.Decimal   `json:"purchase_price"`
	SalePrice          decimal.Decimal   `json:"sale_price"`
	EffectivePrice     decimal.Decimal   `json:"effective_price"`
	IsActive           bool              `json:"is_active"`
	CategoryID         string            `json:"category_id"`
	CategoryName       string            `json:"category_name,omitempty"`
	Discount           *DiscountResponse `json:"discount"`
	BelowStockMinimum  bool              `json:"below_stock_minimum"`
}

// CatalogProductResponse is the public, cacheable product card.
type CatalogProductResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    *string         `json:"description"`
	PhotoURL       *string         `json:"photo_url"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	Available      bool            `json:"available"`
	Category       string          `json:"category"`
}

type StockMovementResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Quantity    int       `json:"quantity"`
	StockBefore int       `json:"stock_before"`
	StockAfter  int       `json:"stock_after"`
	Reason      string    `json:"reason"`
	ReferenceID *string   `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}
