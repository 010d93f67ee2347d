package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles.
const (
	RoleAdministrator = "administrator"
	RoleCashier       = "cashier"
	RoleCustomer      = "customer"
)

// User is any authenticated principal. CI is the identity document, used as
// NIT when an order becomes a sale.
type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CI            string    `gorm:"column:ci;uniqueIndex;not null"`
	Name          string    `gorm:"not null"`
	Phone         string
	Email         string `gorm:"uniqueIndex;not null"`
	Role          string `gorm:"type:varchar(20);not null"`
	PasswordHash  string `gorm:"not null"`
	IsActive      bool   `gorm:"not null;default:true"`
	EmailVerified bool   `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) IsStaff() bool {
	return u.Role == RoleAdministrator || u.Role == RoleCashier
}
