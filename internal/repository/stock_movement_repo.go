package repository

import (
	"context"

	"tiendapos/internal/dto"
	"tiendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var StockMovementFields = FieldSet{
	"kind":       {Column: "kind", Kind: FieldText},
	"quantity":   {Column: "quantity", Kind: FieldNumber},
	"created_at": {Column: "created_at", Kind: FieldDate},
}

type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	ListByProduct(ctx context.Context, productID uuid.UUID, q dto.ListQuery) ([]model.StockMovement, int64, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) ListByProduct(ctx context.Context, productID uuid.UUID, q dto.ListQuery) ([]model.StockMovement, int64, error) {
	plan, err := StockMovementFields.Plan(q, "created_at DESC")
	if err != nil {
		return nil, 0, err
	}
	var out []model.StockMovement
	total, err := findPage(r.db.WithContext(ctx).Where("product_id = ?", productID), plan, &out)
	return out, total, err
}
