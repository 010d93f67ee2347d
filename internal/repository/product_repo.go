package repository

import (
	"context"

	"tiendapos/internal/dto"
	"tiendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ProductFields = FieldSet{
	"name":           {Column: "name", Kind: FieldText},
	"description":    {Column: "description", Kind: FieldText},
	"stock":          {Column: "stock", Kind: FieldNumber},
	"stock_minimum":  {Column: "stock_minimum", Kind: FieldNumber},
	"purchase_price": {Column: "purchase_price", Kind: FieldNumber},
	"sale_price":     {Column: "sale_price", Kind: FieldNumber},
	"is_active":      {Column: "is_active", Kind: FieldBool},
	"category_id":    {Column: "category_id", Kind: FieldUUID},
	"created_at":     {Column: "created_at", Kind: FieldDate},
}

// ProductRepository defines the data access contract for products.
// Stock is never written through Update; only UpdateStockTx touches it.
type ProductRepository interface {
	CreateTx(tx *gorm.DB, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	FindActive(ctx context.Context) ([]model.Product, error)
	List(ctx context.Context, q dto.ListQuery) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	// FindByIDsForUpdateTx locks the rows FOR UPDATE in id order, so two
	// transactions touching the same products always lock them in the same
	// sequence.
	FindByIDsForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Product, error)
	UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Omit(clause.Associations).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Category").Preload("Discount").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Preload("Category").Preload("Discount").
		Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *productRepo) FindActive(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	err := r.db.WithContext(ctx).Preload("Category").Where("is_active = true").Find(&out).Error
	return out, err
}

func (r *productRepo) List(ctx context.Context, q dto.ListQuery) ([]model.Product, int64, error) {
	plan, err := ProductFields.Plan(q, "name ASC")
	if err != nil {
		return nil, 0, err
	}
	var out []model.Product
	total, err := findPage(r.db.WithContext(ctx), plan, &out, "Category", "Discount")
	return out, total, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Model(p).Omit(clause.Associations).Select(
		"name", "description", "photo_url", "stock_minimum", "purchase_price",
		"sale_price", "is_active", "category_id", "discount_id", "updated_at",
	).Updates(p).Error
}

func (r *productRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) FindByIDsForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Discount").
		Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, err
}

func (r *productRepo) UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}
