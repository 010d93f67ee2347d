package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryAddress is one-to-one with a user.
type DeliveryAddress struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Name        string          `gorm:"not null"`
	AddressLine string          `gorm:"not null"`
	City        *string
	State       *string
	PostalCode  *string
	Latitude    decimal.Decimal `gorm:"type:decimal(11,8);not null"`
	Longitude   decimal.Decimal `gorm:"type:decimal(12,8);not null"`
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
