package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Orders ──────────────────────────────────────────────────────────────────

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	PaymentMethod string             `json:"payment_method" validate:"omitempty,oneof=qr card cash"`
	PaymentStatus string             `json:"payment_status" validate:"omitempty,oneof=pending completed failed refunded"`
	TaxAmount     decimal.Decimal    `json:"tax_amount"     validate:"min=0"`
	DeliveryFee   decimal.Decimal    `json:"delivery_fee"   validate:"min=0"`
	TotalAmount   decimal.Decimal    `json:"total_amount"   validate:"gt=0"`
	DeliveryNotes *string            `json:"delivery_notes"`
	Items         []OrderItemRequest `json:"items"          validate:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=pending confirmed preparing ready delivering delivered cancelled"`
	Notes  *string `json:"notes"`
}

type OrderItemResponse struct {
	ID                 string          `json:"id"`
	ProductID          string          `json:"product_id"`
	ProductName        string          `json:"product_name"`
	ProductDescription *string         `json:"product_description"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TotalPrice         decimal.Decimal `json:"total_price"`
}

type OrderResponse struct {
	ID                    string                   `json:"id"`
	OrderNumber           string                   `json:"order_number"`
	Status                string                   `json:"status"`
	StatusDisplay         string                   `json:"status_display"`
	PaymentMethod         string                   `json:"payment_method"`
	PaymentStatus         string                   `json:"payment_status"`
	Subtotal              decimal.Decimal          `json:"subtotal"`
	TaxAmount             decimal.Decimal          `json:"tax_amount"`
	DeliveryFee           decimal.Decimal          `json:"delivery_fee"`
	TotalAmount           decimal.Decimal          `json:"total_amount"`
	DeliveryNotes         *string                  `json:"delivery_notes"`
	EstimatedDeliveryTime *time.Time               `json:"estimated_delivery_time"`
	ActualDeliveryTime    *time.Time               `json:"actual_delivery_time"`
	UserID                string                   `json:"user_id"`
	DeliveryAddress       *DeliveryAddressResponse `json:"delivery_address"`
	SaleID                *string                  `json:"sale_id"`
	Items                 []OrderItemResponse      `json:"items"`
	TotalItems            int                      `json:"total_items"`
	CreatedAt             time.Time                `json:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at"`
}

type OrderStatusHistoryResponse struct {
	ID             string    `json:"id"`
	PreviousStatus *string   `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Notes          *string   `json:"notes"`
	ChangedBy      *string   `json:"changed_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// ─── Delivery address ────────────────────────────────────────────────────────

type DeliveryAddressRequest struct {
	Name        string          `json:"name"         validate:"omitempty,max=100"`
	AddressLine string          `json:"address_line" validate:"required,min=3"`
	City        *string         `json:"city"`
	State       *string         `json:"state"`
	PostalCode  *string         `json:"postal_code"  validate:"omitempty,max=20"`
	Latitude    decimal.Decimal `json:"latitude"     validate:"gte=-90,lte=90"`
	Longitude   decimal.Decimal `json:"longitude"    validate:"gte=-180,lte=180"`
	Notes       *string         `json:"notes"`
}

type DeliveryAddressResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	AddressLine string          `json:"address_line"`
	City        *string         `json:"city"`
	State       *string         `json:"state"`
	PostalCode  *string         `json:"postal_code"`
	Latitude    decimal.Decimal `json:"latitude"`
	Longitude   decimal.Decimal `json:"longitude"`
	Notes       *string         `json:"notes"`
}

// OrderStatusUpdateResponse is the order after a status patch plus the
// history row that patch appended.
type OrderStatusUpdateResponse struct {
	Order   OrderResponse              `json:"order"`
	History OrderStatusHistoryResponse `json:"history"`
}
