package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appContext "github.com/trukapp/truka/internal/context"
	"github.com/trukapp/truka/internal/errHandler"
	"github.com/trukapp/truka/internal/helper"
	"github.com/trukapp/truka/internal/models"
)

// MockWalletRepo implements WalletRepository but only mocks the needed methods.
type MockWalletRepo struct {
	mock.Mock
}

func (m *MockWalletRepo) Insert(wallet *models.Wallet, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockWalletRepo) GetByUserID(userID string) (*models.Wallet, bool, error) {
	args := m.Called(userID)
	return args.Get(0).(*models.Wallet), args.Bool(1), args.Error(2)
}

func (m *MockWalletRepo) Credit(walletID string, amount decimal.Decimal, description string) (*models.Wallet, *models.Transaction, error) {
	args := m.Called(walletID, amount, description)
	return args.Get(0).(*models.Wallet), args.Get(1).(*models.Transaction), args.Error(2)
}

func (m *MockWalletRepo) RecordPendingCredit(walletID string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	args := m.Called(walletID, amount, description)
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockWalletRepo) Debit(walletID string, amount decimal.Decimal, description string) (*models.Wallet, *models.Transaction, bool, error) {
	args := m.Called(walletID, amount, description)

	var wallet *models.Wallet
	if args.Get(0) != nil {
		wallet = args.Get(0).(*models.Wallet)
	}

	var entry *models.Transaction
	if args.Get(1) != nil {
		entry = args.Get(1).(*models.Transaction)
	}

	return wallet, entry, args.Bool(2), args.Error(3)
}

func (m *MockWalletRepo) Settle(transactionID string) (*models.Transaction, bool, error) {
	args := m.Called(transactionID)

	var entry *models.Transaction
	if args.Get(0) != nil {
		entry = args.Get(0).(*models.Transaction)
	}

	return entry, args.Bool(1), args.Error(2)
}

type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) GetOne(id string) (*models.Transaction, bool, error) {
	return nil, false, nil
}

func (m *MockTransactionRepo) AllByWallet(walletID string, limit int) ([]models.Transaction, error) {
	args := m.Called(walletID, limit)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) CountConsecutiveFailedLoginAttempts(userID, actionDesc string) int {
	return 0
}

func (m *MockActivityRepo) Insert(log *models.ActivityLog) (*models.ActivityLog, error) {
	m.Called(log)
	return &models.ActivityLog{}, nil
}

// newTestDeps wires a real helper and error handler around a silent
// logger so handlers under test behave like they do in the app.
func newTestDeps() (*helper.HelperRepository, *errHandler.ErrorHandler, *sync.WaitGroup) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	baseURL := "http://localhost"

	var wg sync.WaitGroup
	help := helper.New(&baseURL, &wg, logger)
	errorHandler := errHandler.New("", nil, logger, help)

	return help, errorHandler, &wg
}

func authenticatedRequest(method, url string, body []byte, user *models.User) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	return appContext.ContextSetAuthenticatedUser(req, user)
}

func TestHandleFundWallet_RejectsNonPositiveAmount(t *testing.T) {
	help, errorHandler, _ := newTestDeps()

	walletHandler := &WalletHandler{
		WalletRepo: new(MockWalletRepo),
		Helper:     help,
		ErrHandler: errorHandler,
	}

	requestBody, _ := json.Marshal(map[string]any{
		"amount": "0",
	})

	req := authenticatedRequest("POST", "/wallet/fund", requestBody, &models.User{ID: "user-1"})
	rr := httptest.NewRecorder()

	walletHandler.HandleFundWallet(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "Amount must be greater than zero")
}

func TestHandleFundWallet_CardFundingCreditsImmediately(t *testing.T) {
	mockWalletRepo := new(MockWalletRepo)
	mockTransactionRepo := new(MockTransactionRepo)
	mockActivityRepo := new(MockActivityRepo)
	help, errorHandler, wg := newTestDeps()

	amount := decimal.RequireFromString("250.00")

	wallet := &models.Wallet{ID: "wallet-1", UserID: "user-1", Balance: decimal.Zero, Currency: "NGN"}
	credited := &models.Wallet{ID: "wallet-1", UserID: "user-1", Balance: amount, Currency: "NGN"}
	entry := &models.Transaction{
		ID:        "txn-1",
		WalletID:  "wallet-1",
		Amount:    amount,
		Direction: models.TransactionDirectionCredit,
		Status:    models.TransactionStatusSuccess,
	}

	mockWalletRepo.On("GetByUserID", "user-1").Return(wallet, true, nil)
	mockWalletRepo.On("Credit", "wallet-1", amount, models.CardFundingDescription).Return(credited, entry, nil)
	mockTransactionRepo.On("AllByWallet", "wallet-1", recentTransactionsLimit).Return([]models.Transaction{*entry}, nil)
	mockActivityRepo.On("Insert", mock.Anything).Return(&models.ActivityLog{}, nil)

	walletHandler := &WalletHandler{
		WalletRepo:      mockWalletRepo,
		TransactionRepo: mockTransactionRepo,
		ActivityRepo:    mockActivityRepo,
		Helper:          help,
		ErrHandler:      errorHandler,
	}

	requestBody, _ := json.Marshal(map[string]any{
		"amount": "250.00",
		"method": models.FundingMethodCard,
	})

	req := authenticatedRequest("POST", "/wallet/fund", requestBody, &models.User{ID: "user-1"})
	rr := httptest.NewRecorder()

	walletHandler.HandleFundWallet(rr, req)
	wg.Wait()

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Wallet funded successfully")
	require.Contains(t, rr.Body.String(), "250")

	mockWalletRepo.AssertExpectations(t)
	mockActivityRepo.AssertExpectations(t)
}

func TestHandleFundWallet_BankTransferStaysPending(t *testing.T) {
	mockWalletRepo := new(MockWalletRepo)
	mockTransactionRepo := new(MockTransactionRepo)
	mockActivityRepo := new(MockActivityRepo)
	help, errorHandler, wg := newTestDeps()

	amount := decimal.RequireFromString("100.00")

	wallet := &models.Wallet{ID: "wallet-1", UserID: "user-1", Balance: decimal.Zero, Currency: "NGN"}
	entry := &models.Transaction{
		ID:        "txn-2",
		WalletID:  "wallet-1",
		Amount:    amount,
		Direction: models.TransactionDirectionCredit,
		Status:    models.TransactionStatusPending,
	}

	mockWalletRepo.On("GetByUserID", "user-1").Return(wallet, true, nil)
	mockWalletRepo.On("RecordPendingCredit", "wallet-1", amount, models.BankTransferFundingDescription).Return(entry, nil)
	mockTransactionRepo.On("AllByWallet", "wallet-1", recentTransactionsLimit).Return([]models.Transaction{*entry}, nil)
	mockActivityRepo.On("Insert", mock.Anything).Return(&models.ActivityLog{}, nil)

	walletHandler := &WalletHandler{
		WalletRepo:      mockWalletRepo,
		TransactionRepo: mockTransactionRepo,
		ActivityRepo:    mockActivityRepo,
		Helper:          help,
		ErrHandler:      errorHandler,
	}

	requestBody, _ := json.Marshal(map[string]any{
		"amount": "100.00",
		"method": models.FundingMethodBankTransfer,
	})

	req := authenticatedRequest("POST", "/wallet/fund", requestBody, &models.User{ID: "user-1"})
	rr := httptest.NewRecorder()

	walletHandler.HandleFundWallet(rr, req)
	wg.Wait()

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "funds will reflect once settled")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)

	// the balance must not move until the entry settles
	require.Equal(t, "0", data["balance"])

	mockWalletRepo.AssertExpectations(t)
}

func TestHandleDebitWallet_InsufficientBalanceLeavesWalletAlone(t *testing.T) {
	mockWalletRepo := new(MockWalletRepo)
	help, errorHandler, _ := newTestDeps()

	wallet := &models.Wallet{ID: "wallet-1", UserID: "user-1", Balance: decimal.RequireFromString("10.00"), Currency: "NGN"}

	amount := decimal.RequireFromString("50.00")

	mockWalletRepo.On("GetByUserID", "user-1").Return(wallet, true, nil)
	mockWalletRepo.On("Debit", "wallet-1", amount, "Trip payment").Return(nil, nil, false, nil)

	walletHandler := &WalletHandler{
		WalletRepo: mockWalletRepo,
		Helper:     help,
		ErrHandler: errorHandler,
	}

	requestBody, _ := json.Marshal(map[string]any{
		"amount":      "50.00",
		"description": "Trip payment",
	})

	req := authenticatedRequest("POST", "/wallet/debit", requestBody, &models.User{ID: "user-1"})
	rr := httptest.NewRecorder()

	walletHandler.HandleDebitWallet(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "insufficient balance")

	mockWalletRepo.AssertExpectations(t)
}

func TestHandleSettleTransaction_UnknownEntry(t *testing.T) {
	mockWalletRepo := new(MockWalletRepo)
	help, errorHandler, _ := newTestDeps()

	mockWalletRepo.On("Settle", "missing-id").Return(nil, false, nil)

	walletHandler := &WalletHandler{
		WalletRepo: mockWalletRepo,
		Helper:     help,
		ErrHandler: errorHandler,
	}

	req := authenticatedRequest("POST", "/wallet/transactions/missing-id/settle", nil, &models.User{ID: "admin-1", Role: models.UserRoleAdmin})
	req.SetPathValue("id", "missing-id")
	rr := httptest.NewRecorder()

	walletHandler.HandleSettleTransaction(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "transaction not found")
}

func TestHandleSettleTransaction_RejectsNonPendingEntry(t *testing.T) {
	mockWalletRepo := new(MockWalletRepo)
	help, errorHandler, _ := newTestDeps()

	entry := &models.Transaction{
		ID:        "txn-3",
		WalletID:  "wallet-1",
		Direction: models.TransactionDirectionCredit,
		Status:    models.TransactionStatusSuccess,
	}

	mockWalletRepo.On("Settle", "txn-3").Return(entry, false, nil)

	walletHandler := &WalletHandler{
		WalletRepo: mockWalletRepo,
		Helper:     help,
		ErrHandler: errorHandler,
	}

	req := authenticatedRequest("POST", "/wallet/transactions/txn-3/settle", nil, &models.User{ID: "admin-1", Role: models.UserRoleAdmin})
	req.SetPathValue("id", "txn-3")
	rr := httptest.NewRecorder()

	walletHandler.HandleSettleTransaction(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "not a pending credit")
}

func TestHandleSettleTransaction_FailsWhenWalletMissing(t *testing.T) {
	mockWalletRepo := new(MockWalletRepo)
	help, errorHandler, _ := newTestDeps()

	// the repository refuses to settle against a removed wallet
	mockWalletRepo.On("Settle", "txn-5").Return(nil, false, errors.New("wallet wallet-1 not found for transaction txn-5"))

	walletHandler := &WalletHandler{
		WalletRepo: mockWalletRepo,
		Helper:     help,
		ErrHandler: errorHandler,
	}

	req := authenticatedRequest("POST", "/wallet/transactions/txn-5/settle", nil, &models.User{ID: "admin-1", Role: models.UserRoleAdmin})
	req.SetPathValue("id", "txn-5")
	rr := httptest.NewRecorder()

	walletHandler.HandleSettleTransaction(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "settled successfully")

	mockWalletRepo.AssertExpectations(t)
}

func TestHandleSettleTransaction_SettlesPendingCredit(t *testing.T) {
	mockWalletRepo := new(MockWalletRepo)
	mockActivityRepo := new(MockActivityRepo)
	help, errorHandler, wg := newTestDeps()

	entry := &models.Transaction{
		ID:        "txn-4",
		WalletID:  "wallet-1",
		Amount:    decimal.RequireFromString("100.00"),
		Direction: models.TransactionDirectionCredit,
		Status:    models.TransactionStatusSuccess,
	}

	mockWalletRepo.On("Settle", "txn-4").Return(entry, true, nil)
	mockActivityRepo.On("Insert", mock.Anything).Return(&models.ActivityLog{}, nil)

	walletHandler := &WalletHandler{
		WalletRepo:   mockWalletRepo,
		ActivityRepo: mockActivityRepo,
		Helper:       help,
		ErrHandler:   errorHandler,
	}

	req := authenticatedRequest("POST", "/wallet/transactions/txn-4/settle", nil, &models.User{ID: "admin-1", Role: models.UserRoleAdmin})
	req.SetPathValue("id", "txn-4")
	rr := httptest.NewRecorder()

	walletHandler.HandleSettleTransaction(rr, req)
	wg.Wait()

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Transaction settled successfully")

	mockWalletRepo.AssertExpectations(t)
	mockActivityRepo.AssertExpectations(t)
}
