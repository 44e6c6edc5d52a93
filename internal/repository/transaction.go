package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/trukapp/truka/internal/models"
)

type TransactionRepository interface {
	GetOne(id string) (*models.Transaction, bool, error)
	AllByWallet(walletID string, limit int) ([]models.Transaction, error)
}

type TransactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

func (repo *TransactionRepositoryImpl) GetOne(id string) (*models.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var entry models.Transaction

	query := `
        SELECT id, wallet_id, reference_number, amount, direction, description, status, created_at
        FROM wallet_transactions WHERE id=$1`

	err := repo.db.GetContext(ctx, &entry, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &entry, true, nil
}

// AllByWallet returns ledger entries newest first. Entries created in
// the same instant keep insertion order via the seq column. A limit of
// zero or less returns the complete history.
func (repo *TransactionRepositoryImpl) AllByWallet(walletID string, limit int) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	entries := []models.Transaction{}

	query := `
        SELECT id, wallet_id, reference_number, amount, direction, description, status, created_at
        FROM wallet_transactions WHERE wallet_id=$1
        ORDER BY created_at DESC, seq ASC`

	if limit > 0 {
		query += ` LIMIT $2`
		err := repo.db.SelectContext(ctx, &entries, query, walletID, limit)
		if err != nil {
			return nil, err
		}
		return entries, nil
	}

	err := repo.db.SelectContext(ctx, &entries, query, walletID)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
