package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusAwaitingPay OrderStatus = "awaiting_payment"
	OrderStatusPaid        OrderStatus = "paid"
	OrderStatusSubmitted   OrderStatus = "submitted"
	OrderStatusShipped     OrderStatus = "shipped"
	OrderStatusCancelled   OrderStatus = "cancelled"
)

type Order struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Status          OrderStatus `gorm:"type:varchar(30);index"`
	Items           []OrderItem
	Email           string     `gorm:"size:140"`
	Name            string     `gorm:"size:140"`
	Phone           string     `gorm:"size:50"`
	Address         string     `gorm:"size:255"`
	City            string     `gorm:"size:80"`
	State           string     `gorm:"size:80"`
	PostalCode      string     `gorm:"size:20"`
	Country         string     `gorm:"size:2"`
	Currency        string     `gorm:"size:3"`
	Subtotal        int64      `gorm:"type:bigint;default:0"`
	Total           int64      `gorm:"type:bigint;default:0"`
	ProviderSession string     `gorm:"size:140;index"`
	ProviderStatus  string     `gorm:"size:60"`
	FulfillmentID   *int64     `gorm:"type:bigint"`
	CustomerID      *uuid.UUID `gorm:"type:uuid;index"`
	Dispatched      bool       `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID  `gorm:"type:uuid;index"`
	ProductID  *uuid.UUID `gorm:"type:uuid;index"`
	PriceID    string     `gorm:"size:140;index"`
	Title      string     `gorm:"size:180"`
	Color      string     `gorm:"size:60"`
	Size       string     `gorm:"size:60"`
	Qty        int        `gorm:"not null"`
	UnitAmount int64      `gorm:"type:bigint"`
	Currency   string     `gorm:"size:3"`
	ImageURL   string     `gorm:"size:255"`
	ExtVariant string     `gorm:"size:60"`
}
