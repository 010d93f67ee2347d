package repository

import (
	"context"

	"tiendapos/internal/dto"
	"tiendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PurchaseCodeConstraint is the unique constraint on purchases.code.
const PurchaseCodeConstraint = "purchases_code_key"

var PurchaseFields = FieldSet{
	"reason":       {Column: "reason", Kind: FieldText},
	"code":         {Column: "code", Kind: FieldText},
	"total_amount": {Column: "total_amount", Kind: FieldNumber},
	"created_at":   {Column: "created_at", Kind: FieldDate},
}

type PurchaseRepository interface {
	CodeExists(ctx context.Context, code string) (bool, error)
	CreateTx(tx *gorm.DB, p *model.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	List(ctx context.Context, q dto.ListQuery) ([]model.Purchase, int64, error)

	DB() *gorm.DB
}

type purchaseRepo struct{ db *gorm.DB }

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository { return &purchaseRepo{db: db} }

func (r *purchaseRepo) DB() *gorm.DB { return r.db }

func (r *purchaseRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).Where("code = ?", code).Count(&n).Error
	return n > 0, err
}

// CreateTx inserts the purchase together with its details. Detail Product
// pointers must be nil.
func (r *purchaseRepo) CreateTx(tx *gorm.DB, p *model.Purchase) error {
	return tx.Create(p).Error
}

func (r *purchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var p model.Purchase
	err := r.db.WithContext(ctx).Preload("Details.Product").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepo) List(ctx context.Context, q dto.ListQuery) ([]model.Purchase, int64, error) {
	plan, err := PurchaseFields.Plan(q, "created_at DESC")
	if err != nil {
		return nil, 0, err
	}
	var out []model.Purchase
	total, err := findPage(r.db.WithContext(ctx), plan, &out, "Details")
	return out, total, err
}
