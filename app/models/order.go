package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PaymentMethod selects how an order is paid.
type PaymentMethod string

const (
	PaymentCOD      PaymentMethod = "cod"
	PaymentRazorpay PaymentMethod = "razorpay"
)

// OrderStatus is the fulfillment stage. Stages only move forward.
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "Placed"
	StatusPacking        OrderStatus = "Packing"
	StatusShipped        OrderStatus = "Shipped"
	StatusOutForDelivery OrderStatus = "OutForDelivery"
	StatusDelivered      OrderStatus = "Delivered"
)

var statusOrder = []OrderStatus{
	StatusPlaced, StatusPacking, StatusShipped, StatusOutForDelivery, StatusDelivered,
}

// Rank is the position of s in the fulfillment sequence, -1 if unknown.
func (s OrderStatus) Rank() int {
	for i, st := range statusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// CanAdvanceTo reports whether next is strictly later than s.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	return s.Rank() >= 0 && next.Rank() > s.Rank()
}

// ParseOrderStatus accepts canonical names and the admin console labels
// ("Order Placed", "Out for delivery"), ignoring case and spaces.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if key == "orderplaced" {
		return StatusPlaced, nil
	}
	for _, st := range statusOrder {
		if strings.ToLower(string(st)) == key {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", raw)
}

// Address is the shipping address captured at checkout.
type Address struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
	Email     string `json:"email"     validate:"required,email"`
	Street    string `json:"street"    validate:"required,max=255"`
	City      string `json:"city"      validate:"required,max=100"`
	State     string `json:"state"     validate:"required,max=100"`
	PinCode   string `json:"pinCode"   validate:"required,max=20"`
	Country   string `json:"country"   validate:"required,max=100"`
	Phone     string `json:"phone"     validate:"required,max=20"`
}

// OrderItem is a frozen copy of the product as it was at checkout.
type OrderItem struct {
	ProductID   string        `json:"_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       int64         `json:"price"`
	Category    string        `json:"category"`
	SubCategory string        `json:"subCategory"`
	Images      ProductImages `json:"images"`
	Size        string        `json:"size"`
	Quantity    int           `json:"quantity"`
}

// Subtotal is Price × Quantity.
func (i OrderItem) Subtotal() int64 { return i.Price * int64(i.Quantity) }

// Order is one checkout. Payment turns true only once the gateway confirms.
type Order struct {
	ID               uint           `gorm:"primaryKey" json:"_id"`
	CreatedAt        time.Time      `gorm:"index" json:"date"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	UserID           uint           `gorm:"not null;index" json:"userId"`
	Items            []OrderItem    `gorm:"type:text;serializer:json" json:"items"`
	Address          Address        `gorm:"type:text;serializer:json" json:"address"`
	Amount           int64          `gorm:"not null" json:"amount"`
	PaymentMethod    PaymentMethod  `gorm:"size:20;not null" json:"paymentMethod"`
	Payment          bool           `gorm:"not null;default:false" json:"payment"`
	Status           OrderStatus    `gorm:"size:30;not null;index" json:"status"`
	GatewayOrderID   string         `gorm:"size:64;index" json:"-"`
	GatewayPaymentID string         `gorm:"size:64" json:"-"`
}

// Receipt is the reference sent to the payment gateway.
func (o *Order) Receipt() string { return fmt.Sprintf("order_%d", o.ID) }
