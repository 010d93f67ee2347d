package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type GenerateQRRequest struct {
	Amount    decimal.Decimal `json:"amount"     validate:"gt=0"`
	Validity  string          `json:"validity"   validate:"omitempty,max=20"`
	Detail    *string         `json:"detail"     validate:"omitempty,max=200"`
	ExtraData map[string]any  `json:"extra_data"`
	OrderID   *string         `json:"order_id"   validate:"omitempty,uuid"`
}

type VerifyPaymentRequest struct {
	PaymentID string `json:"payment_id" validate:"required,uuid"`
}

// WebhookRemitter carries the payer's bank-transfer metadata.
type WebhookRemitter struct {
	Name     string `json:"nombre"`
	Bank     string `json:"banco"`
	Document string `json:"documento"`
	Account  string `json:"cuenta"`
}

// WebhookRequest is the gateway's completion notification.
type WebhookRequest struct {
	MovementID any             `json:"movimiento_id" validate:"required"`
	Status     string          `json:"estado"`
	Remitter   WebhookRemitter `json:"remitente"`
}

type PaymentResponse struct {
	ID             string          `json:"id"`
	MovementID     *string         `json:"movement_id"`
	OrderID        *string         `json:"order_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"payment_method"`
	Status         string          `json:"status"`
	QRData         *string         `json:"qr_data"`
	QRCode         *string         `json:"qr_code"`
	Validity       string          `json:"validity"`
	SenderName     *string         `json:"sender_name"`
	SenderBank     *string         `json:"sender_bank"`
	SenderDocument *string         `json:"sender_document"`
	SenderAccount  *string         `json:"sender_account"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	CompletedAt    *time.Time      `json:"completed_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

type PaymentStatusResponse struct {
	PaymentStatus string          `json:"payment_status"`
	IsCompleted   bool            `json:"is_completed"`
	GatewayData   any             `json:"gateway_data,omitempty"`
	Transaction   PaymentResponse `json:"transaction"`
}

type RecommendationResponse struct {
	ProductID string                   `json:"product_id"`
	Products  []CatalogProductResponse `json:"products"`
}

type RebuildRecommendationsResponse struct {
	FrequentPairs int `json:"frequent_pairs"`
	ContentPairs  int `json:"content_pairs"`
}
