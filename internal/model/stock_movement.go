package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement kinds.
const (
	MovementInitial     = "initial"
	MovementPurchase    = "purchase"
	MovementSale        = "sale"
	MovementOrder       = "order"
	MovementOrderCancel = "order_cancel"
)

// StockMovement records every ledger mutation of a product's stock.
// Written in the same transaction as the mutation itself; never updated.
type StockMovement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind        string    `gorm:"type:varchar(20);not null"`
	Quantity    int       `gorm:"not null"` // positive = in, negative = out
	StockBefore int       `gorm:"not null"`
	StockAfter  int       `gorm:"not null"`
	Reason      string
	ReferenceID *uuid.UUID `gorm:"type:uuid"` // purchase, sale or order id
	CreatedAt   time.Time
}
