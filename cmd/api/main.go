package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conductionnl/balance-service/internal/commonground"
	"github.com/conductionnl/balance-service/internal/config"
	"github.com/conductionnl/balance-service/internal/domain"
	"github.com/conductionnl/balance-service/internal/gateway"
	"github.com/conductionnl/balance-service/internal/handler"
	"github.com/conductionnl/balance-service/internal/ledger"
	"github.com/conductionnl/balance-service/internal/logging"
	"github.com/conductionnl/balance-service/internal/middleware"
	"github.com/conductionnl/balance-service/internal/repository"
	"github.com/conductionnl/balance-service/internal/settlement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("balance-api", cfg.LogLevel, cfg.AppEnv)

	store := commonground.NewClient(cfg.CommonGroundURL, cfg.CommonGroundAPIKey, cfg.ResourceTimeout)
	gw := gateway.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayTimeout, cfg.GatewayMaxRetry)

	accounts := repository.NewAccountRepository(store)
	entries := repository.NewLedgerRepository(store)
	invoices := repository.NewInvoiceRepository(store)

	ledgerSvc := ledger.NewService(accounts, entries, store, domain.Currency(cfg.DefaultCurrency))
	settlementSvc := settlement.NewService(gw, ledgerSvc, invoices, store, cfg.TaxRatePct, cfg.GatewayRedirectURL)

	accountHandler := handler.NewAccountHandler(ledgerSvc)
	ledgerHandler := handler.NewLedgerHandler(ledgerSvc)
	paymentHandler := handler.NewPaymentHandler(settlementSvc)
	healthHandler := handler.NewHealthHandler()

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/accounts", accountHandler.Create)
	api.HandleFunc("GET /api/v1/accounts", accountHandler.Get)
	api.HandleFunc("GET /api/v1/balance", accountHandler.Balance)
	api.HandleFunc("GET /api/v1/ledger", accountHandler.Entries)
	api.HandleFunc("POST /api/v1/credits", ledgerHandler.Credit)
	api.HandleFunc("POST /api/v1/debits", ledgerHandler.Debit)
	api.HandleFunc("POST /api/v1/payments", paymentHandler.Create)
	api.HandleFunc("POST /api/v1/payments/{id}/settle", paymentHandler.Settle)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.Handle("/api/v1/", middleware.Auth(cfg.JWTSecret)(api))

	chain := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chain,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
