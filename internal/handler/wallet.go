package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trukapp/truka/internal/context"
	"github.com/trukapp/truka/internal/errHandler"
	"github.com/trukapp/truka/internal/helper"
	"github.com/trukapp/truka/internal/models"
	"github.com/trukapp/truka/internal/repository"
	"github.com/trukapp/truka/internal/request"
	"github.com/trukapp/truka/internal/response"
	"github.com/trukapp/truka/internal/validator"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransactionNotFound = errors.New("transaction not found")
)

const (
	WalletActivityLogFundedDescription  = "Wallet funded"
	WalletActivityLogDebitedDescription = "Wallet debited"
	WalletActivityLogSettledDescription = "Pending funding settled"
)

// recentTransactionsLimit caps the ledger slice embedded in the wallet
// view. The full history stays available on its own endpoint.
const recentTransactionsLimit = 50

type WalletHandler struct {
	WalletRepo      repository.WalletRepository
	TransactionRepo repository.TransactionRepository
	ActivityRepo    repository.ActivityRepository
	Helper          *helper.HelperRepository
	ErrHandler      *errHandler.ErrorHandler
}

func NewWalletHandler(handler *WalletHandler) *WalletHandler {
	return &WalletHandler{
		WalletRepo:      handler.WalletRepo,
		TransactionRepo: handler.TransactionRepo,
		ActivityRepo:    handler.ActivityRepo,
		Helper:          handler.Helper,
		ErrHandler:      handler.ErrHandler,
	}
}

type TransactionResponseData struct {
	ID              string          `json:"id"`
	ReferenceNumber string          `json:"reference_number"`
	Amount          decimal.Decimal `json:"amount"`
	Direction       string          `json:"direction"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

type WalletResponseData struct {
	ID           string                    `json:"id"`
	Balance      decimal.Decimal           `json:"balance"`
	Currency     string                    `json:"currency"`
	CreatedAt    time.Time                 `json:"created_at"`
	Transactions []TransactionResponseData `json:"transactions"`
}

func newTransactionResponseData(entry *models.Transaction) TransactionResponseData {
	return TransactionResponseData{
		ID:              entry.ID,
		ReferenceNumber: entry.ReferenceNumber,
		Amount:          entry.Amount,
		Direction:       entry.Direction,
		Description:     entry.Description,
		Status:          entry.Status,
		CreatedAt:       entry.CreatedAt,
	}
}

// walletView assembles the wallet response shape shared by the read and
// the mutation endpoints: current balance plus the most recent ledger
// entries.
func (h *WalletHandler) walletView(wallet *models.Wallet) (*WalletResponseData, error) {
	entries, err := h.TransactionRepo.AllByWallet(wallet.ID, recentTransactionsLimit)
	if err != nil {
		return nil, err
	}

	transactions := make([]TransactionResponseData, len(entries))
	for i := range entries {
		transactions[i] = newTransactionResponseData(&entries[i])
	}

	return &WalletResponseData{
		ID:           wallet.ID,
		Balance:      wallet.Balance,
		Currency:     wallet.Currency,
		CreatedAt:    wallet.CreatedAt,
		Transactions: transactions,
	}, nil
}

func (h *WalletHandler) HandleWalletDetails(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	wallet, found, err := h.WalletRepo.GetByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	data, err := h.walletView(wallet)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Wallet details fetched successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleWalletBalance(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	wallet, found, err := h.WalletRepo.GetByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	message := "Balance fetched successfully"

	data := map[string]any{
		"balance":  wallet.Balance,
		"currency": wallet.Currency,
	}
	err = response.JSONOkResponse(w, data, message, nil)

	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleWalletTransactions(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	wallet, found, err := h.WalletRepo.GetByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	entries, err := h.TransactionRepo.AllByWallet(wallet.ID, 0)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]TransactionResponseData, len(entries))
	for i := range entries {
		data[i] = newTransactionResponseData(&entries[i])
	}

	message := "Transactions retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleFundWallet(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Amount    decimal.Decimal     `json:"amount"`
		Method    string              `json:"method"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	if input.Method == "" {
		input.Method = models.FundingMethodCard
	}

	input.Validator.Check(input.Amount.GreaterThan(decimal.Zero), "Amount must be greater than zero")
	input.Validator.Check(validator.In(input.Method, models.FundingMethodCard, models.FundingMethodBankTransfer), "Funding method is not supported")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	wallet, found, err := h.WalletRepo.GetByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	var entry *models.Transaction

	// Card funding clears instantly. A bank transfer only records a
	// pending ledger entry; the balance moves when an admin settles it
	// after the transfer arrives.
	switch input.Method {
	case models.FundingMethodBankTransfer:
		entry, err = h.WalletRepo.RecordPendingCredit(wallet.ID, input.Amount, models.BankTransferFundingDescription)
	default:
		wallet, entry, err = h.WalletRepo.Credit(wallet.ID, input.Amount, models.CardFundingDescription)
	}

	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      user.ID,
			Entity:      models.ActivityLogWalletEntity,
			EntityId:    entry.ID,
			Description: WalletActivityLogFundedDescription,
		})

		if err != nil {
			log.Printf("Error logging wallet funding action: %v", err)
			return err
		}

		return nil
	})

	data, err := h.walletView(wallet)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Wallet funded successfully"
	if entry.Status == models.TransactionStatusPending {
		message = "Bank transfer recorded, funds will reflect once settled"
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleDebitWallet(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Amount      decimal.Decimal     `json:"amount"`
		Description string              `json:"description"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(input.Amount.GreaterThan(decimal.Zero), "Amount must be greater than zero")
	input.Validator.Check(validator.NotBlank(input.Description), "Description is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	wallet, found, err := h.WalletRepo.GetByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	wallet, entry, ok, err := h.WalletRepo.Debit(wallet.ID, input.Amount, input.Description)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !ok {
		response.JSONErrorResponse(w, nil, ErrInsufficientBalance.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      user.ID,
			Entity:      models.ActivityLogWalletEntity,
			EntityId:    entry.ID,
			Description: WalletActivityLogDebitedDescription,
		})

		if err != nil {
			log.Printf("Error logging wallet debit action: %v", err)
			return err
		}

		return nil
	})

	data, err := h.walletView(wallet)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Wallet debited successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleSettleTransaction is the admin settlement step for pending
// bank-transfer fundings: the ledger entry flips to success and the
// wallet balance is credited in the same unit.
func (h *WalletHandler) HandleSettleTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := r.PathValue("id")

	entry, settled, err := h.WalletRepo.Settle(transactionID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if entry == nil {
		response.JSONErrorResponse(w, nil, ErrTransactionNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	if !settled {
		h.ErrHandler.FailedValidation(w, r, []string{"Transaction is not a pending credit"})
		return
	}

	admin := context.ContextGetAuthenticatedUser(r)

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      admin.ID,
			Entity:      models.ActivityLogWalletEntity,
			EntityId:    entry.ID,
			Description: WalletActivityLogSettledDescription,
		})

		if err != nil {
			log.Printf("Error logging settlement action: %v", err)
			return err
		}

		return nil
	})

	message := "Transaction settled successfully"

	err = response.JSONOkResponse(w, newTransactionResponseData(entry), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
