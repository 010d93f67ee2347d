package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is an immutable stock replenishment record.
type Purchase struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Reason         string          `gorm:"not null"`
	Code           string          `gorm:"uniqueIndex;not null"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CashRegisterID *uuid.UUID      `gorm:"type:uuid"`
	UserID         *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt      time.Time

	Details []PurchaseDetail `gorm:"foreignKey:PurchaseID"`
}

type PurchaseDetail struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity   int             `gorm:"not null"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
