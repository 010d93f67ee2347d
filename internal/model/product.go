package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the unit of inventory. Stock is only ever changed through the
// inventory ledger (see service.InventoryLedger); updates to the catalog entry
// never touch it.
type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string    `gorm:"not null"`
	Description   *string
	PhotoURL      *string
	Stock         int             `gorm:"not null;default:0"`
	StockMinimum  int             `gorm:"not null;default:0"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsActive      bool            `gorm:"not null;default:true"`
	CategoryID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	DiscountID    *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
	Discount *Discount `gorm:"foreignKey:DiscountID"`
}

// DiscountPercentage returns the percentage of the product's active,
// non-expired discount, or zero.
func (p *Product) DiscountPercentage(now time.Time) decimal.Decimal {
	if p.Discount != nil && p.Discount.ActiveAt(now) {
		return p.Discount.Percentage
	}
	return decimal.Zero
}

// EffectivePrice is the sale price with the active discount applied.
func (p *Product) EffectivePrice(now time.Time) decimal.Decimal {
	return ApplyDiscount(p.SalePrice, p.DiscountPercentage(now))
}

// ApplyDiscount computes price - price*pct/100.
func ApplyDiscount(price, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return price
	}
	return price.Sub(price.Mul(pct).Div(decimal.NewFromInt(100)))
}
