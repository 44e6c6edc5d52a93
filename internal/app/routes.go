package app

import (
	"net/http"

	"github.com/trukapp/truka/internal/handler"
	"github.com/trukapp/truka/internal/middleware"
	"github.com/trukapp/truka/internal/models"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	middlewareRepo := middleware.New(app.ErrorHandler, app.Logger, app.DB.User(), &app.Config)

	healthHandler := handler.NewHealthCheckHandler(app.ErrorHandler)

	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		DB:           app.DB,
		UserRepo:     app.DB.User(),
		WalletRepo:   app.DB.Wallet(),
		ActivityRepo: app.DB.Activity(),
		Mailer:       app.Mailer,
		Helper:       app.Helper,
		ErrHandler:   app.ErrorHandler,
		Config:       &app.Config,
	})

	walletHandler := handler.NewWalletHandler(&handler.WalletHandler{
		WalletRepo:      app.DB.Wallet(),
		TransactionRepo: app.DB.Transaction(),
		ActivityRepo:    app.DB.Activity(),
		Helper:          app.Helper,
		ErrHandler:      app.ErrorHandler,
	})

	orderHandler := handler.NewOrderHandler(&handler.OrderHandler{
		OrderRepo:    app.DB.Order(),
		UserRepo:     app.DB.User(),
		ActivityRepo: app.DB.Activity(),
		Cache:        app.Cache,
		Kafka:        app.Kafka,
		FileUploader: app.FileUploader,
		Helper:       app.Helper,
		ErrHandler:   app.ErrorHandler,
		Policy:       models.TransitionPolicyStrict,
	})

	notificationHandler := handler.NewNotificationHandler(&handler.NotificationHandler{
		NotificationRepo: app.DB.Notification(),
		ErrHandler:       app.ErrorHandler,
	})

	mux.HandleFunc("GET /status", healthHandler.HandleHealthCheck)

	mux.HandleFunc("POST /auth/register", authHandler.HandleAuthRegister)
	mux.HandleFunc("POST /auth/login", authHandler.HandleAuthLogin)

	mux.Handle("GET /wallet", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(walletHandler.HandleWalletDetails)))
	mux.Handle("GET /wallet/balance", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(walletHandler.HandleWalletBalance)))
	mux.Handle("GET /wallet/transactions", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(walletHandler.HandleWalletTransactions)))
	mux.Handle("POST /wallet/fund", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(walletHandler.HandleFundWallet)))
	mux.Handle("POST /wallet/debit", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(walletHandler.HandleDebitWallet)))
	mux.Handle("POST /wallet/transactions/{id}/settle", middlewareRepo.RequireAdminUser(http.HandlerFunc(walletHandler.HandleSettleTransaction)))

	mux.Handle("GET /orders", middlewareRepo.RequireAdminUser(http.HandlerFunc(orderHandler.HandleListOrders)))
	mux.Handle("GET /orders/{id}", middlewareRepo.RequireAdminUser(http.HandlerFunc(orderHandler.HandleOrderDetail)))
	mux.Handle("PATCH /orders/{id}/status", middlewareRepo.RequireAdminUser(http.HandlerFunc(orderHandler.HandleUpdateOrderStatus)))
	mux.Handle("POST /orders/{id}/photo", middlewareRepo.RequireAdminUser(http.HandlerFunc(orderHandler.HandleUploadCargoPhoto)))

	mux.Handle("GET /notifications", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(notificationHandler.HandleListNotifications)))
	mux.Handle("PATCH /notifications/{id}/read", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(notificationHandler.HandleMarkNotificationRead)))

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(mux)))
}
