package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category groups products. A category with products cannot be deleted.
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Discount is a percentage reduction attached to at most one product.
type Discount struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string          `gorm:"not null"`
	Percentage     decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	IsActive       bool            `gorm:"not null;default:true"`
	ExpirationDate time.Time       `gorm:"type:date;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ActiveAt reports whether the discount applies on the given instant: it must be
// active and its expiration date must not be before that day.
func (d *Discount) ActiveAt(now time.Time) bool {
	if d == nil || !d.IsActive {
		return false
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	ey, em, ed := d.ExpirationDate.Date()
	exp := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return !exp.Before(today)
}
