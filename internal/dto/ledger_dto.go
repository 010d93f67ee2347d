package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Purchases ───────────────────────────────────────────────────────────────

type PurchaseLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,gt=0"`
	Price     decimal.Decimal `json:"price"      validate:"gt=0"`
}

type CreatePurchaseRequest struct {
	Reason         string                `json:"reason"           validate:"required,min=2"`
	Code           string                `json:"code"             validate:"required,max=50"`
	CashRegisterID *string               `json:"cash_register_id" validate:"omitempty,uuid"`
	Details        []PurchaseLineRequest `json:"details"          validate:"required,min=1,dive"`
}

type PurchaseDetailResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type PurchaseResponse struct {
	ID             string                   `json:"id"`
	Reason         string                   `json:"reason"`
	Code           string                   `json:"code"`
	TotalAmount    decimal.Decimal          `json:"total_amount"`
	CashRegisterID *string                  `json:"cash_register_id"`
	CreatedAt      time.Time                `json:"created_at"`
	Details        []PurchaseDetailResponse `json:"details"`
}

// ─── Sales ───────────────────────────────────────────────────────────────────

type SaleLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,gt=0"`
	Price     decimal.Decimal `json:"price"      validate:"gt=0"`
}

type CreateSaleRequest struct {
	NIT            string            `json:"nit"              validate:"max=30"`
	CustomerID     *string           `json:"customer_id"      validate:"omitempty,uuid"`
	CashRegisterID string            `json:"cash_register_id" validate:"required,uuid"`
	Details        []SaleLineRequest `json:"details"          validate:"required,min=1,dive"`
}

type SaleDetailResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID             string               `json:"id"`
	Code           string               `json:"code"`
	PaidAmount     decimal.Decimal      `json:"paid_amount"`
	NIT            string               `json:"nit"`
	CustomerID     *string              `json:"customer_id"`
	CashRegisterID *string              `json:"cash_register_id"`
	OrderID        *string              `json:"order_id"`
	CreatedAt      time.Time            `json:"created_at"`
	Details        []SaleDetailResponse `json:"details"`
}

// ─── Cash registers ──────────────────────────────────────────────────────────

type OpenRegisterRequest struct {
	InitialBalance decimal.Decimal `json:"initial_balance" validate:"min=0"`
}

type UpdateRegisterRequest struct {
	InitialBalance decimal.Decimal `json:"initial_balance" validate:"min=0"`
}

type CashRegisterResponse struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Opening        time.Time       `json:"opening"`
	Closing        *time.Time      `json:"closing"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	SalesTotal     decimal.Decimal `json:"sales_total"`
	PurchasesTotal decimal.Decimal `json:"purchases_total"`
	Total          decimal.Decimal `json:"total"`
}

type ValidateRegisterResponse struct {
	ID       *string `json:"id"`
	Validate bool    `json:"validate"`
}
