package models

import "time"

type ActivityLog struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Entity      string    `db:"entity"`
	EntityId    string    `db:"entity_id"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

const (
	// ActivityLogWalletEntity is used in activities that has to do with wallets and the wallets table
	ActivityLogWalletEntity = "wallet"

	// ActivityLogOrderEntity is used in activities that has to do with orders and the orders table
	ActivityLogOrderEntity = "order"

	// ActivityLogUserEntity is used in activities that has to do with user account and the users table
	ActivityLogUserEntity = "user"
)
