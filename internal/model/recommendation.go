package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RecommendationFrequentlyBought = "frequently_bought"
	RecommendationContent          = "category"
)

// ProductRecommendation is a scored source→recommended product pair produced
// by the batch scorer. Each type is rebuilt as a whole.
type ProductRecommendation struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SourceProductID      uuid.UUID `gorm:"type:uuid;not null;index"`
	RecommendedProductID uuid.UUID `gorm:"type:uuid;not null"`
	Score                float64   `gorm:"not null"`
	RecommendationType   string    `gorm:"type:varchar(30);not null"`
	CreatedAt            time.Time
}
