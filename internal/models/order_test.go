package models

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTotalPayable_SumsLineItems(t *testing.T) {
	order := &Order{
		EstimatedCost: decimal.RequireFromString("99.00"),
		Items: []OrderItem{
			{ProductName: "Maize", Quantity: 2, Price: decimal.RequireFromString("5.00")},
			{ProductName: "Beans", Quantity: 1, Price: decimal.RequireFromString("3.00")},
		},
	}

	require.True(t, order.TotalPayable().Equal(decimal.RequireFromString("13.00")))
}

func TestTotalPayable_FallsBackToEstimate(t *testing.T) {
	order := &Order{
		EstimatedCost: decimal.RequireFromString("85000.00"),
	}

	require.True(t, order.TotalPayable().Equal(decimal.RequireFromString("85000.00")))
}

func TestMarketplaceSummary(t *testing.T) {
	order := &Order{
		Items: []OrderItem{
			{ProductName: "Maize", Quantity: 2},
			{ProductName: "Beans", Quantity: 1},
		},
	}

	require.Equal(t, "2x Maize, 1x Beans", order.MarketplaceSummary())

	haulage := &Order{}
	require.Equal(t, "Logistics Service", haulage.MarketplaceSummary())
}

func TestDetailsMap(t *testing.T) {
	order := &Order{Details: []byte(`{"temperature":"ambient","fragile":true}`)}

	details := order.DetailsMap()
	require.Equal(t, "ambient", details["temperature"])
	require.Equal(t, true, details["fragile"])

	// malformed blobs degrade to an empty object
	malformed := &Order{Details: []byte(`{"temperature":`)}
	require.Empty(t, malformed.DetailsMap())

	empty := &Order{}
	require.NotNil(t, empty.DetailsMap())
	require.Empty(t, empty.DetailsMap())
}

func TestCargo(t *testing.T) {
	order := &Order{ProduceType: sql.NullString{String: "Sorghum", Valid: true}}
	require.Equal(t, "Sorghum", order.Cargo())

	unnamed := &Order{}
	require.Equal(t, "cargo", unnamed.Cargo())
}

func TestNewOrderStatusNotification(t *testing.T) {
	order := &Order{
		ID:          "order-1",
		ShipperID:   sql.NullString{String: "shipper-1", Valid: true},
		ProduceType: sql.NullString{String: "Maize", Valid: true},
		Status:      OrderStatusAccepted,
	}

	notification := NewOrderStatusNotification(order, OrderStatusInTransit)

	require.Equal(t, "shipper-1", notification.UserID)
	require.Equal(t, "Order Update", notification.Title)
	require.Equal(t, "Your Maize shipment is now In Transit.", notification.Message)
	require.Equal(t, NotificationTypeOrderUpdate, notification.Type)
	require.Equal(t, "order-1", notification.OrderID.String)
}
