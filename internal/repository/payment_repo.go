package repository

import (
	"context"
	"time"

	"tiendapos/internal/dto"
	"tiendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var PaymentFields = FieldSet{
	"status":         {Column: "status", Kind: FieldText},
	"payment_method": {Column: "payment_method", Kind: FieldText},
	"movement_id":    {Column: "movement_id", Kind: FieldText},
	"amount":         {Column: "amount", Kind: FieldNumber},
	"created_at":     {Column: "created_at", Kind: FieldDate},
}

type PaymentRepository interface {
	Create(ctx context.Context, p *model.PaymentTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, q dto.ListQuery) ([]model.PaymentTransaction, int64, error)

	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.PaymentTransaction, error)
	FindByMovementForUpdateTx(tx *gorm.DB, movementID string) (*model.PaymentTransaction, error)
	UpdateTx(tx *gorm.DB, p *model.PaymentTransaction) error

	// ExpireOverdue marks pending transactions past expires_at as expired.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	DB() *gorm.DB
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) DB() *gorm.DB { return r.db }

func (r *paymentRepo) Create(ctx context.Context, p *model.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *paymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error) {
	var p model.PaymentTransaction
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, userID uuid.UUID, q dto.ListQuery) ([]model.PaymentTransaction, int64, error) {
	plan, err := PaymentFields.Plan(q, "created_at DESC")
	if err != nil {
		return nil, 0, err
	}
	var out []model.PaymentTransaction
	total, err := findPage(r.db.WithContext(ctx).Where("user_id = ?", userID), plan, &out)
	return out, total, err
}

func (r *paymentRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.PaymentTransaction, error) {
	var p model.PaymentTransaction
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) FindByMovementForUpdateTx(tx *gorm.DB, movementID string) (*model.PaymentTransaction, error) {
	var p model.PaymentTransaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("movement_id = ?", movementID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) UpdateTx(tx *gorm.DB, p *model.PaymentTransaction) error {
	return tx.Save(p).Error
}

func (r *paymentRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.PaymentTransaction{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", model.PaymentPending, now).
		Updates(map[string]any{"status": model.PaymentExpired, "updated_at": now})
	return res.RowsAffected, res.Error
}
