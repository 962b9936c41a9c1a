package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"time"

	"tracker/internal/analytics"
	"tracker/internal/auth"
	"tracker/internal/backend"
	"tracker/internal/charts"
	"tracker/internal/cli"
	apphttp "tracker/internal/http"
	"tracker/internal/log"
	"tracker/internal/receipts"
	"tracker/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	receiptStore, err := receipts.NewLocalStore(cfg.MediaRoot, cfg.MaxReceiptBytes)
	if err != nil {
		logger.Error("Failed to initialize receipt storage", log.FieldError, err, "media_root", cfg.MediaRoot)
		os.Exit(1)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		// Only reachable with the memory backend; tokens die with the process.
		secret = randomSecret()
		logger.Warn("JWT_SECRET not set, using a random per-process secret")
	}

	events := log.NewStructuredLogger(logger.WithComponent(log.ComponentTransaction))
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Accounts:           services.NewAccountService(be.Store, log.NewStructuredLogger(logger.WithComponent(log.ComponentAuth))),
		Categories:         services.NewCategoryService(be.Store),
		Transactions:       services.NewTransactionService(be.Store, receiptStore, be.Publisher, events),
		Budgets:            services.NewBudgetService(be.Store, log.NewStructuredLogger(logger.WithComponent(log.ComponentBudget))),
		Analytics:          analytics.NewEngine(be.Store),
		Charts:             charts.NewGenerator(),
		Issuer:             auth.NewIssuer(secret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Store:              be.Store,
		Logger:             logger,
		MediaRoot:          receiptStore.Root(),
		MediaURL:           cfg.MediaURL,
		MaxReceiptBytes:    cfg.MaxReceiptBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting tracker server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", be.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
