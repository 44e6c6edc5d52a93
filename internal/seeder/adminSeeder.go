package seeders

import (
	"context"
	"database/sql"
	"log"

	"github.com/cradoe/gopass"
)

// seedAdminUser creates the operations admin account used by the back
// office to settle pending fundings and move orders through their
// lifecycle. Returns the admin's user id.
func (seeder *Seeder) seedAdminUser() string {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := seeder.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}

	hashedPassword, err := gopass.Hash("Admin@Truka1")
	if err != nil {
		tx.Rollback()
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	var adminID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, phone_number, email, role, hashed_password)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING
		RETURNING id;`,
		"Truka", "Admin", "+2348000000000", "admin@trukapp.com", "admin", hashedPassword,
	).Scan(&adminID)

	// Check if the insert failed due to conflict (no ID returned)
	if err == sql.ErrNoRows {
		err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, "admin@trukapp.com").Scan(&adminID)
	}

	if err != nil {
		tx.Rollback()
		log.Fatalf("Failed to insert or retrieve admin user: %v", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING;`,
		adminID,
	)
	if err != nil {
		tx.Rollback()
		log.Fatalf("Failed to insert admin wallet: %v", err)
	}

	if err = tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}

	return adminID
}
