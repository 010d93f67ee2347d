package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashRegister is one user's point-of-sale session. Closing is nil while open;
// once set the record is immutable. Total always equals
// InitialBalance + SalesTotal - PurchasesTotal.
type CashRegister struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Opening        time.Time       `gorm:"not null"`
	Closing        *time.Time
	InitialBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalesTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PurchasesTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	User *User `gorm:"foreignKey:UserID"`
}

func (r *CashRegister) IsOpen() bool { return r.Closing == nil }
