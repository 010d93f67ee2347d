package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentTransaction tracks one QR collection through the external gateway.
// Sender fields are filled only on completion (polling or webhook).
type PaymentTransaction struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderID        *uuid.UUID `gorm:"type:uuid"`
	MovementID     *string    `gorm:"uniqueIndex"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod  string          `gorm:"type:varchar(20);not null"`
	Status         string          `gorm:"type:varchar(20);not null;default:'pending'"`
	QRCode         *string         `gorm:"column:qr_code"`
	QRValidity     string          `gorm:"column:qr_validity;not null"`
	ExtraData      datatypes.JSONMap `gorm:"type:jsonb"`
	GatewayPayload datatypes.JSON    `gorm:"type:jsonb"`
	SenderName     *string
	SenderBank     *string
	SenderDocument *string
	SenderAccount  *string
	ExpiresAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p *PaymentTransaction) IsCompleted() bool { return p.Status == PaymentCompleted }

// FormattedQR returns the QR as a data URI for the frontend.
func (p *PaymentTransaction) FormattedQR() *string {
	if p.QRCode == nil || *p.QRCode == "" {
		return nil
	}
	s := "data:image/png;base64," + *p.QRCode
	return &s
}
