package repository

import (
	"context"
	"fmt"

	"tiendapos/internal/dto"
	"tiendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var SaleFields = FieldSet{
	"code":        {Column: "code", Kind: FieldText},
	"nit":         {Column: "nit", Kind: FieldText},
	"paid_amount": {Column: "paid_amount", Kind: FieldNumber},
	"customer_id": {Column: "customer_id", Kind: FieldUUID},
	"created_at":  {Column: "created_at", Kind: FieldDate},
}

type SaleRepository interface {
	// NextCodeTx draws the next sale code from sales_code_seq. Codes may have
	// gaps after rollbacks but are never reused.
	NextCodeTx(tx *gorm.DB) (string, error)
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, q dto.ListQuery) ([]model.Sale, int64, error)

	// Baskets returns, per sale, the distinct product ids it contains. Sales
	// with a single product are skipped.
	Baskets(ctx context.Context) ([][]uuid.UUID, error)

	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) NextCodeTx(tx *gorm.DB) (string, error) {
	var n int64
	if err := tx.Raw("SELECT nextval('sales_code_seq')").Scan(&n).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%010d", n), nil
}

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Omit("Customer").Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Details.Product").Preload("Customer").First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) List(ctx context.Context, q dto.ListQuery) ([]model.Sale, int64, error) {
	plan, err := SaleFields.Plan(q, "code DESC")
	if err != nil {
		return nil, 0, err
	}
	var out []model.Sale
	total, err := findPage(r.db.WithContext(ctx), plan, &out, "Details")
	return out, total, err
}

func (r *saleRepo) Baskets(ctx context.Context) ([][]uuid.UUID, error) {
	type row struct {
		SaleID    uuid.UUID
		ProductID uuid.UUID
	}
	var rows []row
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT sale_id, product_id FROM sale_details
		WHERE sale_id IN (
			SELECT sale_id FROM sale_details GROUP BY sale_id HAVING COUNT(DISTINCT product_id) > 1
		)
		ORDER BY sale_id, product_id`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var baskets [][]uuid.UUID
	var current uuid.UUID
	for _, rw := range rows {
		if len(baskets) == 0 || rw.SaleID != current {
			baskets = append(baskets, nil)
			current = rw.SaleID
		}
		baskets[len(baskets)-1] = append(baskets[len(baskets)-1], rw.ProductID)
	}
	return baskets, nil
}
