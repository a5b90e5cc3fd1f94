package db_models

import (
	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusRevision   OrderStatus = "revision"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusDisputed   OrderStatus = "disputed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order is one purchase intent for one gig. Created optimistically in
// "pending" when a checkout session is initiated; status moves only through
// the escrow service and the dispute engine, never deleted.
type Order struct {
	BaseModel
	GigID    uuid.UUID `gorm:"index"`
	BuyerID  uuid.UUID `gorm:"index"`
	SellerID uuid.UUID `gorm:"index"`

	Status OrderStatus `gorm:"type:order_status;index"`

	// Money fields in minor units. PlatformFee + SellerEarnings == TotalAmount.
	TotalAmount        int64
	PlatformFeePercent int
	PlatformFee        int64
	SellerEarnings     int64

	SelectedVariant string `gorm:"size:64"`
	BuyerMessage    string
	SellerDelivery  string

	// Unix seconds, nil until the event happens.
	DeliveredAt *int64
	CompletedAt *int64
}
