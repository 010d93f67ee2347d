package repository

import (
	"context"

	"tiendapos/internal/dto"
	"tiendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var DiscountFields = FieldSet{
	"name":       {Column: "name", Kind: FieldText},
	"percentage": {Column: "percentage", Kind: FieldNumber},
	"is_active":  {Column: "is_active", Kind: FieldBool},
}

type DiscountRepository interface {
	Create(ctx context.Context, d *model.Discount) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Discount, error)
	List(ctx context.Context, q dto.ListQuery) ([]model.Discount, int64, error)
	Update(ctx context.Context, d *model.Discount) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type discountRepo struct{ db *gorm.DB }

func NewDiscountRepository(db *gorm.DB) DiscountRepository { return &discountRepo{db: db} }

func (r *discountRepo) Create(ctx context.Context, d *model.Discount) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *discountRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Discount, error) {
	var d model.Discount
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *discountRepo) List(ctx context.Context, q dto.ListQuery) ([]model.Discount, int64, error) {
	plan, err := DiscountFields.Plan(q, "expiration_date DESC")
	if err != nil {
		return nil, 0, err
	}
	var out []model.Discount
	total, err := findPage(r.db.WithContext(ctx), plan, &out)
	return out, total, err
}

func (r *discountRepo) Update(ctx context.Context, d *model.Discount) error {
	return r.db.WithContext(ctx).Save(d).Error
}

// Delete relies on ON DELETE SET NULL to detach the discount from its product.
func (r *discountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Discount{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
