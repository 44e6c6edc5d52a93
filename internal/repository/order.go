package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trukapp/truka/internal/models"
)

type OrderRepository interface {
	Insert(order *models.Order, tx *sqlx.Tx) (string, error)
	InsertItem(item *models.OrderItem, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*models.Order, bool, error)
	GetActive(limit, offset int) ([]models.Order, error)
	CountActive() (int, error)
	ApplyTransition(orderID string, from, to models.OrderStatus, notification *models.Notification) (bool, error)
	SetCargoPhoto(orderID, photoURL string) error
}

type OrderRepositoryImpl struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) OrderRepository {
	return &OrderRepositoryImpl{db: db}
}

const orderColumns = `id, shipper_id, driver_id, pickup_address, destination_address, produce_type,
		weight, cargo_photo, details, estimated_cost, status, accepted_at, in_transit_at,
		cleared_at, delivered_at, cancelled_at, created_at, updated_at`

func (repo *OrderRepositoryImpl) Insert(order *models.Order, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO orders (shipper_id, driver_id, pickup_address, destination_address, produce_type, weight, details, estimated_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	args := []any{
		order.ShipperID,
		order.DriverID,
		order.PickupAddress,
		order.DestinationAddress,
		order.ProduceType,
		order.Weight,
		order.Details,
		order.EstimatedCost,
	}

	if tx != nil {
		err := tx.QueryRowContext(ctx, query, args...).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query, args...)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *OrderRepositoryImpl) InsertItem(item *models.OrderItem, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO order_items (order_id, product_name, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	args := []any{item.OrderID, item.ProductName, item.Quantity, item.Price}

	if tx != nil {
		err := tx.QueryRowContext(ctx, query, args...).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query, args...)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *OrderRepositoryImpl) GetOne(id string) (*models.Order, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var order models.Order

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id=$1`, orderColumns)

	err := repo.db.GetContext(ctx, &order, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	itemsByOrder, err := repo.loadItems(ctx, []string{order.ID})
	if err != nil {
		return nil, false, err
	}
	order.Items = itemsByOrder[order.ID]

	return &order, true, nil
}

func (repo *OrderRepositoryImpl) GetActive(limit, offset int) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	orders := []models.Order{}

	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE status = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, orderColumns)

	err := repo.db.SelectContext(ctx, &orders, query, pq.Array(activeStatusNames()), limit, offset)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}

	itemsByOrder, err := repo.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}

	return orders, nil
}

func (repo *OrderRepositoryImpl) CountActive() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var count int

	query := `SELECT count(*) FROM orders WHERE status = ANY($1)`

	err := repo.db.GetContext(ctx, &count, query, pq.Array(activeStatusNames()))
	if err != nil {
		return 0, err
	}

	return count, nil
}

// statusTimestampColumns maps a status onto its bookkeeping column.
// Pending has no column, it is the initial state set at creation.
var statusTimestampColumns = map[models.OrderStatus]string{
	models.OrderStatusAccepted:  "accepted_at",
	models.OrderStatusInTransit: "in_transit_at",
	models.OrderStatusCleared:   "cleared_at",
	models.OrderStatusDelivered: "delivered_at",
	models.OrderStatusCancelled: "cancelled_at",
}

// ApplyTransition persists a status change and, when supplied, the
// shipper notification as one unit. The status update is a
// compare-and-swap against the status the caller saw; a false return
// means another request moved the order first and nothing was written.
// The timestamp column is only filled when still empty, so re-entering
// a status never rewrites history.
func (repo *OrderRepositoryImpl) ApplyTransition(orderID string, from, to models.OrderStatus, notification *models.Notification) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}

	defer tx.Rollback()

	query := `UPDATE orders SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`
	if column, ok := statusTimestampColumns[to]; ok {
		query = fmt.Sprintf(`UPDATE orders SET status=$1, %[1]s=COALESCE(%[1]s, now()), updated_at=now() WHERE id=$2 AND status=$3`, column)
	}

	result, err := tx.ExecContext(ctx, query, to, orderID, from)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if affected == 0 {
		return false, nil
	}

	if notification != nil {
		query = `
			INSERT INTO notifications (user_id, title, message, type, order_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`

		err = tx.QueryRowContext(ctx, query,
			notification.UserID,
			notification.Title,
			notification.Message,
			notification.Type,
			notification.OrderID,
		).Scan(&notification.ID, &notification.CreatedAt)

		if err != nil {
			return false, err
		}
	}

	err = tx.Commit()
	if err != nil {
		return false, err
	}

	return true, nil
}

func (repo *OrderRepositoryImpl) SetCargoPhoto(orderID, photoURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE orders SET cargo_photo=$1, updated_at=now() WHERE id=$2`

	_, err := repo.db.ExecContext(ctx, query, photoURL, orderID)
	return err
}

func (repo *OrderRepositoryImpl) loadItems(ctx context.Context, orderIDs []string) (map[string][]models.OrderItem, error) {
	items := []models.OrderItem{}

	query := `
		SELECT id, order_id, product_name, quantity, price
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY seq ASC`

	err := repo.db.SelectContext(ctx, &items, query, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.OrderItem)
	for _, item := range items {
		grouped[item.OrderID] = append(grouped[item.OrderID], item)
	}

	return grouped, nil
}

func activeStatusNames() []string {
	names := make([]string, len(models.ActiveOrderStatuses))
	for i, status := range models.ActiveOrderStatuses {
		names[i] = string(status)
	}
	return names
}
