package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/trukapp/truka/internal/models"
)

type WalletRepository interface {
	Insert(wallet *models.Wallet, tx *sqlx.Tx) (string, error)
	GetByUserID(userID string) (*models.Wallet, bool, error)
	Credit(walletID string, amount decimal.Decimal, description string) (*models.Wallet, *models.Transaction, error)
	RecordPendingCredit(walletID string, amount decimal.Decimal, description string) (*models.Transaction, error)
	Debit(walletID string, amount decimal.Decimal, description string) (*models.Wallet, *models.Transaction, bool, error)
	Settle(transactionID string) (*models.Transaction, bool, error)
}

type WalletRepositoryImpl struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &WalletRepositoryImpl{db: db}
}

func (repo *WalletRepositoryImpl) Insert(wallet *models.Wallet, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO wallets (user_id)
		VALUES ($1)
		RETURNING id`
	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			wallet.UserID,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			wallet.UserID,
		)

		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *WalletRepositoryImpl) GetByUserID(userID string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `
        SELECT id, user_id, balance, currency, created_at FROM wallets WHERE user_id=$1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &wallet, query, userID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

// Credit increases the balance and appends the matching success ledger
// entry as one unit. The wallet row is locked for the duration of the
// operation so concurrent mutations serialize.
func (repo *WalletRepositoryImpl) Credit(walletID string, amount decimal.Decimal, description string) (*models.Wallet, *models.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	defer tx.Rollback()

	var wallet models.Wallet

	query := `
		SELECT id, user_id, balance, currency, created_at FROM wallets WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`

	err = tx.GetContext(ctx, &wallet, query, walletID)
	if err != nil {
		return nil, nil, err
	}

	query = `
		UPDATE wallets SET balance=balance+$1, updated_at=now() WHERE id=$2 RETURNING balance`

	err = tx.GetContext(ctx, &wallet.Balance, query, amount, walletID)
	if err != nil {
		return nil, nil, err
	}

	entry, err := insertLedgerEntry(ctx, tx, &models.Transaction{
		WalletID:    walletID,
		Amount:      amount,
		Direction:   models.TransactionDirectionCredit,
		Description: description,
		Status:      models.TransactionStatusSuccess,
	})
	if err != nil {
		return nil, nil, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, nil, err
	}

	return &wallet, entry, nil
}

// RecordPendingCredit appends a pending ledger entry without touching
// the balance. The balance is applied later when the entry settles.
func (repo *WalletRepositoryImpl) RecordPendingCredit(walletID string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer tx.Rollback()

	entry, err := insertLedgerEntry(ctx, tx, &models.Transaction{
		WalletID:    walletID,
		Amount:      amount,
		Direction:   models.TransactionDirectionCredit,
		Description: description,
		Status:      models.TransactionStatusPending,
	})
	if err != nil {
		return nil, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Debit checks the balance and, if sufficient, decreases it and
// appends the debit ledger entry in one unit. The boolean is false
// when the wallet cannot cover the amount; nothing is written in that
// case.
func (repo *WalletRepositoryImpl) Debit(walletID string, amount decimal.Decimal, description string) (*models.Wallet, *models.Transaction, bool, error) {
	// we need to first check if the wallet has enough balance to process the transaction
	// if not, we return without writing anything
	// we'll use pessimistic lock to hold the wallet for the duration of the operation

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, false, err
	}

	defer tx.Rollback()

	var wallet models.Wallet

	query := `
		SELECT id, user_id, balance, currency, created_at FROM wallets WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`

	err = tx.GetContext(ctx, &wallet, query, walletID)
	if err != nil {
		return nil, nil, false, err
	}

	if wallet.Balance.LessThan(amount) {
		return nil, nil, false, nil
	}

	query = `
		UPDATE wallets SET balance=balance-$1, updated_at=now() WHERE id=$2 RETURNING balance`

	err = tx.GetContext(ctx, &wallet.Balance, query, amount, walletID)
	if err != nil {
		return nil, nil, false, err
	}

	entry, err := insertLedgerEntry(ctx, tx, &models.Transaction{
		WalletID:    walletID,
		Amount:      amount,
		Direction:   models.TransactionDirectionDebit,
		Description: description,
		Status:      models.TransactionStatusSuccess,
	})
	if err != nil {
		return nil, nil, false, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, nil, false, err
	}

	return &wallet, entry, true, nil
}

// Settle flips a pending credit to success and applies its amount to
// the wallet balance as one unit. The returned boolean is false when
// the entry exists but is not a pending credit; a nil entry means it
// does not exist at all.
func (repo *WalletRepositoryImpl) Settle(transactionID string) (*models.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}

	defer tx.Rollback()

	var entry models.Transaction

	query := `
		SELECT id, wallet_id, reference_number, amount, direction, description, status, created_at
		FROM wallet_transactions WHERE id=$1 FOR UPDATE`

	err = tx.GetContext(ctx, &entry, query, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if entry.Status != models.TransactionStatusPending || entry.Direction != models.TransactionDirectionCredit {
		return &entry, false, nil
	}

	query = `
		UPDATE wallet_transactions SET status=$1 WHERE id=$2`

	_, err = tx.ExecContext(ctx, query, models.TransactionStatusSuccess, transactionID)
	if err != nil {
		return nil, false, err
	}

	query = `
		UPDATE wallets SET balance=balance+$1, updated_at=now() WHERE id=$2 AND deleted_at IS NULL`

	result, err := tx.ExecContext(ctx, query, entry.Amount, entry.WalletID)
	if err != nil {
		return nil, false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	// The entry must not settle when its wallet has been removed.
	if rowsAffected == 0 {
		return nil, false, fmt.Errorf("wallet %s not found for transaction %s", entry.WalletID, transactionID)
	}

	err = tx.Commit()
	if err != nil {
		return nil, false, err
	}

	entry.Status = models.TransactionStatusSuccess

	return &entry, true, nil
}

func insertLedgerEntry(ctx context.Context, tx *sqlx.Tx, entry *models.Transaction) (*models.Transaction, error) {
	entry.ReferenceNumber = uuid.NewString()

	query := `
		INSERT INTO wallet_transactions (wallet_id, reference_number, amount, direction, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := tx.QueryRowContext(ctx, query,
		entry.WalletID,
		entry.ReferenceNumber,
		entry.Amount,
		entry.Direction,
		entry.Description,
		entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return nil, err
	}

	return entry, nil
}
