package models

import (
	"database/sql"
	"fmt"
	"time"
)

type Notification struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	Title     string         `db:"title"`
	Message   string         `db:"message"`
	Type      string         `db:"type"`
	OrderID   sql.NullString `db:"order_id"`
	IsRead    bool           `db:"is_read"`
	CreatedAt time.Time      `db:"created_at"`
}

const (
	NotificationTypeOrderUpdate = "order_update"
)

// NewOrderStatusNotification builds the record we push to a shipper
// when one of their orders moves to a new status.
func NewOrderStatusNotification(order *Order, newStatus OrderStatus) *Notification {
	return &Notification{
		UserID:  order.ShipperID.String,
		Title:   "Order Update",
		Message: fmt.Sprintf("Your %s shipment is now %s.", order.Cargo(), newStatus.Human()),
		Type:    NotificationTypeOrderUpdate,
		OrderID: sql.NullString{String: order.ID, Valid: true},
	}
}
