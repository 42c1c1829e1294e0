package models

import (
	"errors"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"        // Order placed, stock reserved
	OrderStatusProcessing OrderStatus = "processing" // Being assembled for delivery
	OrderStatusDelivered  OrderStatus = "delivered"  // Recipient received the flowers
	OrderStatusCancelled  OrderStatus = "cancelled"  // Cancelled, stock returned
)

// statusTransitions is the closed set of allowed status moves. Delivered and
// cancelled are terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:        {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

var ErrInvalidOrderStatus = errors.New("invalid order status")

// ParseOrderStatus maps a request string to a known OrderStatus.
func ParseOrderStatus(status string) (OrderStatus, error) {
	switch strings.ToLower(status) {
	case string(OrderStatusNew):
		return OrderStatusNew, nil
	case string(OrderStatusProcessing):
		return OrderStatusProcessing, nil
	case string(OrderStatusDelivered):
		return OrderStatusDelivered, nil
	case string(OrderStatusCancelled):
		return OrderStatusCancelled, nil
	default:
		return "", ErrInvalidOrderStatus
	}
}

// CanTransitionTo reports whether the move from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	OrderRef        string      `gorm:"size:50;uniqueIndex" json:"order_ref"`
	CustomerID      uint        `gorm:"not null;index" json:"customer_id"`
	Customer        Customer    `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT" json:"customer"`
	OrderDate       time.Time   `json:"order_date"`
	TotalAmount     float64     `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status          OrderStatus `gorm:"type:VARCHAR(20);default:'new'" json:"status"`
	DeliveryAddress string      `gorm:"size:255;not null" json:"delivery_address"`
	RecipientName   string      `gorm:"size:100;not null" json:"recipient_name"`
	RecipientPhone  string      `gorm:"size:20;not null" json:"recipient_phone"`
	DeliveryDate    *time.Time  `json:"delivery_date,omitempty"`
	DeliveryTime    *string     `gorm:"size:5" json:"delivery_time,omitempty"` // HH:MM
	Notes           string      `gorm:"size:500" json:"notes,omitempty"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	OrderID  uint    `gorm:"not null;index" json:"order_id"`
	FlowerID uint    `gorm:"not null" json:"flower_id"`
	Flower   Flower  `gorm:"foreignKey:FlowerID;constraint:OnDelete:RESTRICT" json:"flower"`
	Quantity int     `gorm:"not null" json:"quantity"`
	Price    float64 `gorm:"type:decimal(10,2);not null" json:"price"` // unit price captured at order time
}

// Subtotal is the line total at the captured unit price.
func (i OrderItem) Subtotal() float64 {
	return float64(i.Quantity) * i.Price
}
