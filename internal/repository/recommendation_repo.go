package repository

import (
	"context"

	"tiendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecommendationRepository interface {
	// ReplaceTypeTx deletes every row of recType and inserts rows in its place.
	ReplaceTypeTx(tx *gorm.DB, recType string, rows []model.ProductRecommendation) error
	TopFor(ctx context.Context, productID uuid.UUID, recType string, limit int) ([]model.ProductRecommendation, error)

	DB() *gorm.DB
}

type recommendationRepo struct{ db *gorm.DB }

func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &recommendationRepo{db: db}
}

func (r *recommendationRepo) DB() *gorm.DB { return r.db }

func (r *recommendationRepo) ReplaceTypeTx(tx *gorm.DB, recType string, rows []model.ProductRecommendation) error {
	if err := tx.Where("recommendation_type = ?", recType).Delete(&model.ProductRecommendation{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, 500).Error
}

func (r *recommendationRepo) TopFor(ctx context.Context, productID uuid.UUID, recType string, limit int) ([]model.ProductRecommendation, error) {
	var out []model.ProductRecommendation
	err := r.db.WithContext(ctx).
		Where("source_product_id = ? AND recommendation_type = ?", productID, recType).
		Order("score DESC").Limit(limit).Find(&out).Error
	return out, err
}
