package repository

import (
	"context"

	"tiendapos/internal/dto"
	"tiendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderNumberConstraint is the unique constraint on orders.order_number.
const OrderNumberConstraint = "orders_order_number_key"

var OrderFields = FieldSet{
	"order_number":   {Column: "order_number", Kind: FieldText},
	"status":         {Column: "status", Kind: FieldText},
	"payment_status": {Column: "payment_status", Kind: FieldText},
	"payment_method": {Column: "payment_method", Kind: FieldText},
	"total_amount":   {Column: "total_amount", Kind: FieldNumber},
	"user_id":        {Column: "user_id", Kind: FieldUUID},
	"created_at":     {Column: "created_at", Kind: FieldDate},
}

type OrderRepository interface {
	CreateTx(tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, userID *uuid.UUID, q dto.ListQuery) ([]model.Order, int64, error)

	// FindForUpdateTx locks the order row and loads its items.
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	UpdateStatusTx(tx *gorm.DB, o *model.Order) error
	UpdatePaymentStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	AddHistoryTx(tx *gorm.DB, h *model.OrderStatusHistory) error
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error)

	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Omit("User", "DeliveryAddress", "History").Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("DeliveryAddress").First(&o, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, userID *uuid.UUID, q dto.ListQuery) ([]model.Order, int64, error) {
	plan, err := OrderFields.Plan(q, "created_at DESC")
	if err != nil {
		return nil, 0, err
	}
	db := r.db.WithContext(ctx)
	if userID != nil {
		db = db.Where("user_id = ?", *userID)
	}
	var out []model.Order
	total, err := findPage(db, plan, &out, "Items", "DeliveryAddress")
	return out, total, err
}

func (r *orderRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").First(&o, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) UpdateStatusTx(tx *gorm.DB, o *model.Order) error {
	return tx.Model(o).Omit(clause.Associations).
		Select("status", "actual_delivery_time", "sale_id", "updated_at").
		Updates(o).Error
}

func (r *orderRepo) UpdatePaymentStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Order{}).Where("id = ?", id).Update("payment_status", status).Error
}

func (r *orderRepo) AddHistoryTx(tx *gorm.DB, h *model.OrderStatusHistory) error {
	return tx.Omit("ChangedByUser").Create(h).Error
}

func (r *orderRepo) ListHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	var out []model.OrderStatusHistory
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).
		Order("created_at DESC, seq DESC").Find(&out).Error
	return out, err
}
