package repository

import (
	"context"

	"tiendapos/internal/dto"
	"tiendapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFields is the list allow-list for users.
var UserFields = FieldSet{
	"name":      {Column: "name", Kind: FieldText},
	"email":     {Column: "email", Kind: FieldText},
	"ci":        {Column: "ci", Kind: FieldText},
	"role":      {Column: "role", Kind: FieldText},
	"is_active": {Column: "is_active", Kind: FieldBool},
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, q dto.ListQuery) ([]model.User, int64, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

type userRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context, q dto.ListQuery) ([]model.User, int64, error) {
	plan, err := UserFields.Plan(q, "name ASC")
	if err != nil {
		return nil, 0, err
	}
	var users []model.User
	total, err := findPage(r.db.WithContext(ctx), plan, &users)
	return users, total, err
}

func (r *userRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("email_verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
