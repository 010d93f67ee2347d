package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is a state of the customer order lifecycle.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderPreparing  OrderStatus = "preparing"
	OrderReady      OrderStatus = "ready"
	OrderDelivering OrderStatus = "delivering"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Payment methods and statuses shared by orders and payment transactions.
const (
	PaymentMethodQR   = "qr"
	PaymentMethodCard = "card"
	PaymentMethodCash = "cash"

	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
	PaymentExpired   = "expired"
)

type Order struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID                uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderNumber           string          `gorm:"uniqueIndex;not null"`
	Status                OrderStatus     `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentMethod         string          `gorm:"type:varchar(20);not null"`
	PaymentStatus         string          `gorm:"type:varchar(20);not null"`
	Subtotal              decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxAmount             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeliveryFee           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAmount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeliveryAddressID     *uuid.UUID      `gorm:"type:uuid"`
	DeliveryNotes         *string
	EstimatedDeliveryTime *time.Time
	ActualDeliveryTime    *time.Time
	SaleID                *uuid.UUID `gorm:"type:uuid"`
	CreatedAt             time.Time
	UpdatedAt             time.Time

	User            *User                `gorm:"foreignKey:UserID"`
	DeliveryAddress *DeliveryAddress     `gorm:"foreignKey:DeliveryAddressID"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID"`
	History         []OrderStatusHistory `gorm:"foreignKey:OrderID"`
}

// TotalItems is the sum of item quantities.
func (o *Order) TotalItems() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// OrderItem keeps a snapshot of the product name and description taken when
// the order was placed, decoupled from later catalog edits.
type OrderItem struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity           int             `gorm:"not null"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ProductName        string          `gorm:"not null"`
	ProductDescription *string
	CreatedAt          time.Time
}

// OrderStatusHistory is append-only: one row per status change.
type OrderStatusHistory struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID        uuid.UUID    `gorm:"type:uuid;not null;index"`
	PreviousStatus *OrderStatus `gorm:"type:varchar(20)"`
	NewStatus      OrderStatus  `gorm:"type:varchar(20);not null"`
	Notes          *string
	ChangedBy      *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time
	Seq            int64 `gorm:"->"` // assigned by the database

	ChangedByUser *User `gorm:"foreignKey:ChangedBy"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }
