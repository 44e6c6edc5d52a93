package seeders

import (
	"context"
	"database/sql"
	"log"
)

// seedDemoOrders gives a fresh environment a couple of orders to look
// at. Marketplace orders carry line items, pure logistics orders only
// carry an estimated cost.
func (seeder *Seeder) seedDemoOrders(shipperID string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := seeder.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM orders`).Scan(&count); err != nil {
		tx.Rollback()
		log.Fatalf("Failed to count orders: %v", err)
	}

	// only seed into an empty table
	if count > 0 {
		tx.Rollback()
		return
	}

	demoOrders := []struct {
		Pickup        string
		Destination   string
		ProduceType   string
		Weight        string
		EstimatedCost string
		Status        string
		Items         []struct {
			ProductName string
			Quantity    int
			Price       string
		}
	}{
		{
			Pickup:        "Mile 12 Market, Lagos",
			Destination:   "Wuse Market, Abuja",
			ProduceType:   "Maize",
			Weight:        "2 tonnes",
			EstimatedCost: "85000.00",
			Status:        "pending",
			Items: []struct {
				ProductName string
				Quantity    int
				Price       string
			}{
				{ProductName: "Maize", Quantity: 2, Price: "5.00"},
				{ProductName: "Beans", Quantity: 1, Price: "3.00"},
			},
		},
		{
			Pickup:        "Kano Grain Depot",
			Destination:   "Onitsha Main Market",
			ProduceType:   "Sorghum",
			Weight:        "5 tonnes",
			EstimatedCost: "120000.00",
			Status:        "in_transit",
		},
	}

	for _, order := range demoOrders {
		var orderID string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO orders (shipper_id, pickup_address, destination_address, produce_type, weight, estimated_cost, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id;`,
			shipperID, order.Pickup, order.Destination, order.ProduceType, order.Weight, order.EstimatedCost, order.Status,
		).Scan(&orderID)

		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to insert demo order: %v", err)
		}

		for _, item := range order.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_name, quantity, price)
				VALUES ($1, $2, $3, $4);`,
				orderID, item.ProductName, item.Quantity, item.Price,
			)
			if err != nil {
				tx.Rollback()
				log.Fatalf("Failed to insert demo order item: %v", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}
}
