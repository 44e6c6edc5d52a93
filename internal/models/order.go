package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID                 string          `db:"id"`
	ShipperID          sql.NullString  `db:"shipper_id"`
	DriverID           sql.NullString  `db:"driver_id"`
	PickupAddress      string          `db:"pickup_address"`
	DestinationAddress string          `db:"destination_address"`
	ProduceType        sql.NullString  `db:"produce_type"`
	Weight             sql.NullString  `db:"weight"`
	CargoPhoto         sql.NullString  `db:"cargo_photo"`
	Details            []byte          `db:"details"`
	EstimatedCost      decimal.Decimal `db:"estimated_cost"`
	Status             OrderStatus     `db:"status"`
	AcceptedAt         sql.NullTime    `db:"accepted_at"`
	InTransitAt        sql.NullTime    `db:"in_transit_at"`
	ClearedAt          sql.NullTime    `db:"cleared_at"`
	DeliveredAt        sql.NullTime    `db:"delivered_at"`
	CancelledAt        sql.NullTime    `db:"cancelled_at"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          sql.NullTime    `db:"updated_at"`

	Items []OrderItem `db:"-"`
}

type OrderItem struct {
	ID          string          `db:"id"`
	OrderID     string          `db:"order_id"`
	ProductName string          `db:"product_name"`
	Quantity    int             `db:"quantity"`
	Price       decimal.Decimal `db:"price"`
}

// TotalPayable is the amount the shipper owes for the order.
// Marketplace orders carry line items priced at purchase time; plain
// logistics orders fall back to the admin-quoted estimate.
func (o *Order) TotalPayable() decimal.Decimal {
	if len(o.Items) == 0 {
		return o.EstimatedCost
	}

	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return total
}

// MarketplaceSummary renders the line items as "2x Maize, 1x Beans".
// Orders without line items are plain haulage jobs.
func (o *Order) MarketplaceSummary() string {
	if len(o.Items) == 0 {
		return "Logistics Service"
	}

	parts := make([]string, len(o.Items))
	for i, item := range o.Items {
		parts[i] = fmt.Sprintf("%dx %s", item.Quantity, item.ProductName)
	}

	return strings.Join(parts, ", ")
}

// Cargo names what is being moved for notification copy.
func (o *Order) Cargo() string {
	if o.ProduceType.Valid && strings.TrimSpace(o.ProduceType.String) != "" {
		return o.ProduceType.String
	}
	return "cargo"
}

// DetailsMap decodes the free-form details blob stored alongside the
// order. The blob comes from external integrations and is not
// validated on write, so a malformed or absent value degrades to an
// empty object instead of failing the request.
func (o *Order) DetailsMap() map[string]any {
	details := map[string]any{}

	if len(o.Details) == 0 {
		return details
	}

	if err := json.Unmarshal(o.Details, &details); err != nil {
		return map[string]any{}
	}

	return details
}

// StatusTimestamp returns the bookkeeping timestamp that belongs to a
// status, or nil for pending which has no dedicated field.
func (o *Order) StatusTimestamp(status OrderStatus) *sql.NullTime {
	switch status {
	case OrderStatusAccepted:
		return &o.AcceptedAt
	case OrderStatusInTransit:
		return &o.InTransitAt
	case OrderStatusCleared:
		return &o.ClearedAt
	case OrderStatusDelivered:
		return &o.DeliveredAt
	case OrderStatusCancelled:
		return &o.CancelledAt
	}
	return nil
}
