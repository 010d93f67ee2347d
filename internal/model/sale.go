package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is an immutable accounting record. PaidAmount is always the sum of the
// detail subtotals; it is never taken from the client.
type Sale struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code           string          `gorm:"uniqueIndex;not null"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NIT            string          `gorm:"column:nit"`
	CustomerID     *uuid.UUID      `gorm:"type:uuid"`
	CashRegisterID *uuid.UUID      `gorm:"type:uuid"`
	OrderID        *uuid.UUID      `gorm:"type:uuid"` // set when converted from a delivered order
	CreatedAt      time.Time

	Details  []SaleDetail `gorm:"foreignKey:SaleID"`
	Customer *User        `gorm:"foreignKey:CustomerID"`
}

// SaleDetail snapshots the discount percentage in force at sale time.
type SaleDetail struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount  decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
