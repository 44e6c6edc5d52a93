package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single ledger entry. Amounts are always stored
// positive, the direction tag decides the sign. Entries are append-only
// and never mutated after creation, with the single exception of a
// pending bank-transfer credit moving to success on settlement.
type Transaction struct {
	ID              string          `db:"id"`
	WalletID        string          `db:"wallet_id"`
	ReferenceNumber string          `db:"reference_number"`
	Amount          decimal.Decimal `db:"amount"`
	Direction       string          `db:"direction"`
	Description     string          `db:"description"`
	Status          string          `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
}

const (
	TransactionDirectionCredit = "credit"
	TransactionDirectionDebit  = "debit"
)

const (
	TransactionStatusPending = "pending"
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

// define the funding channels we accept
const (
	FundingMethodCard         = "CARD"
	FundingMethodBankTransfer = "BANK_TRANSFER"
)

const (
	CardFundingDescription         = "Card Funding"
	BankTransferFundingDescription = "Bank Transfer Funding"
)
