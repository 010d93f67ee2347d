package repository

import (
	"context"

	"tiendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeliveryAddressRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*model.DeliveryAddress, error)
	// Upsert inserts or replaces the user's single address; created reports
	// whether a new row was inserted.
	Upsert(ctx context.Context, a *model.DeliveryAddress) (created bool, err error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type deliveryRepo struct{ db *gorm.DB }

func NewDeliveryAddressRepository(db *gorm.DB) DeliveryAddressRepository {
	return &deliveryRepo{db: db}
}

func (r *deliveryRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*model.DeliveryAddress, error) {
	var a model.DeliveryAddress
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *deliveryRepo) Upsert(ctx context.Context, a *model.DeliveryAddress) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.DeliveryAddress
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", a.UserID).First(&existing).Error
		switch {
		case IsNotFound(err):
			created = true
			return tx.Create(a).Error
		case err != nil:
			return err
		}
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		return tx.Save(a).Error
	})
	return created, err
}

func (r *deliveryRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.DeliveryAddress{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
