package repository

import (
	"context"
	"time"

	"tiendapos/internal/dto"
	"tiendapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OpenRegisterIndex backs the one-open-register-per-user rule.
const OpenRegisterIndex = "ux_cash_registers_open_user"

var CashRegisterFields = FieldSet{
	"opening":     {Column: "opening", Kind: FieldDate},
	"closing":     {Column: "closing", Kind: FieldDate},
	"total":       {Column: "total", Kind: FieldNumber},
	"sales_total": {Column: "sales_total", Kind: FieldNumber},
	"user_id":     {Column: "user_id", Kind: FieldUUID},
}

// CashRegisterRepository mutates totals only with relative SQL updates
// (col = col + ?) on rows the caller has locked with FindForUpdateTx.
type CashRegisterRepository interface {
	Create(ctx context.Context, r *model.CashRegister) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error)
	FindOpenByUser(ctx context.Context, userID uuid.UUID) (*model.CashRegister, error)
	List(ctx context.Context, userID *uuid.UUID, q dto.ListQuery) ([]model.CashRegister, int64, error)

	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.CashRegister, error)
	FindOpenByUserForUpdateTx(tx *gorm.DB, userID uuid.UUID) (*model.CashRegister, error)
	CreditSaleTx(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error
	DebitPurchaseTx(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error
	AdjustInitialBalanceTx(tx *gorm.DB, id uuid.UUID, balance, delta decimal.Decimal) error
	CloseTx(tx *gorm.DB, id uuid.UUID, at time.Time) error

	DB() *gorm.DB
}

type cashRegisterRepo struct{ db *gorm.DB }

func NewCashRegisterRepository(db *gorm.DB) CashRegisterRepository {
	return &cashRegisterRepo{db: db}
}

func (r *cashRegisterRepo) DB() *gorm.DB { return r.db }

func (r *cashRegisterRepo) Create(ctx context.Context, reg *model.CashRegister) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(reg).Error
}

func (r *cashRegisterRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	if err := r.db.WithContext(ctx).First(&reg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *cashRegisterRepo) FindOpenByUser(ctx context.Context, userID uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).Where("user_id = ? AND closing IS NULL", userID).First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *cashRegisterRepo) List(ctx context.Context, userID *uuid.UUID, q dto.ListQuery) ([]model.CashRegister, int64, error) {
	plan, err := CashRegisterFields.Plan(q, "opening DESC")
	if err != nil {
		return nil, 0, err
	}
	db := r.db.WithContext(ctx)
	if userID != nil {
		db = db.Where("user_id = ?", *userID)
	}
	var out []model.CashRegister
	total, err := findPage(db, plan, &out)
	return out, total, err
}

func (r *cashRegisterRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reg, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *cashRegisterRepo) FindOpenByUserForUpdateTx(tx *gorm.DB, userID uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND closing IS NULL", userID).First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *cashRegisterRepo) CreditSaleTx(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	return tx.Model(&model.CashRegister{}).Where("id = ? AND closing IS NULL", id).Updates(map[string]any{
		"sales_total": gorm.Expr("sales_total + ?", amount),
		"total":       gorm.Expr("total + ?", amount),
	}).Error
}

func (r *cashRegisterRepo) DebitPurchaseTx(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	return tx.Model(&model.CashRegister{}).Where("id = ? AND closing IS NULL", id).Updates(map[string]any{
		"purchases_total": gorm.Expr("purchases_total + ?", amount),
		"total":           gorm.Expr("total - ?", amount),
	}).Error
}

func (r *cashRegisterRepo) AdjustInitialBalanceTx(tx *gorm.DB, id uuid.UUID, balance, delta decimal.Decimal) error {
	return tx.Model(&model.CashRegister{}).Where("id = ? AND closing IS NULL", id).Updates(map[string]any{
		"initial_balance": balance,
		"total":           gorm.Expr("total + ?", delta),
	}).Error
}

func (r *cashRegisterRepo) CloseTx(tx *gorm.DB, id uuid.UUID, at time.Time) error {
	return tx.Model(&model.CashRegister{}).Where("id = ? AND closing IS NULL", id).
		Update("closing", at).Error
}
