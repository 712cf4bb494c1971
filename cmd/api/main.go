package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-coupon/internal/config"
	"pos-coupon/internal/database"
	"pos-coupon/internal/handler"
	"pos-coupon/internal/outlet"
	"pos-coupon/internal/pos"
	"pos-coupon/internal/repository"
	"pos-coupon/internal/router"
	"pos-coupon/internal/service"
	"pos-coupon/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting pos-coupon API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize coupon ledger connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to prepare ledger schema: %w", err)
	}

	// Load the outlet directory from S3 with local fallback
	directory, err := outlet.LoadDirectory(ctx, cfg.S3, cfg.Outlets.File, logger)
	if err != nil {
		return fmt.Errorf("failed to load outlet directory: %w", err)
	}
	if _, ok := directory.Lookup(cfg.Outlets.HeadOffice); !ok {
		return fmt.Errorf("head office outlet %q is not in the outlet directory", cfg.Outlets.HeadOffice)
	}

	registry := outlet.NewRegistry(directory, outlet.PoolConfig{
		UserOverride:     cfg.Outlets.UserOverride,
		PasswordOverride: cfg.Outlets.PasswordOverride,
		MaxConnections:   int32(cfg.Outlets.MaxConnections),
		MinConnections:   int32(cfg.Outlets.MinConnections),
		MaxConnIdleTime:  cfg.Outlets.MaxConnIdleTime,
	}, logger)
	defer registry.Close()

	// Initialize repositories and outlet sources
	couponRepo := repository.NewCouponRepository(pool, cfg.Allocation.LockTimeout, logger)
	transactions := pos.NewTransactionSource(registry, logger)
	cashiers := pos.NewCashierDirectory(registry, cfg.Outlets.HeadOffice, logger)

	sealer, err := session.NewSealer([]byte(cfg.Session.Secret), cfg.Session.MaxAge)
	if err != nil {
		return fmt.Errorf("failed to initialize session sealer: %w", err)
	}

	// Initialize services
	allocatorConfig := service.DefaultAllocatorConfig()
	allocatorConfig.MaxRunning = cfg.Allocation.MaxRunning
	allocatorConfig.RetryAttempts = cfg.Allocation.RetryAttempts

	allocator := service.NewSequenceAllocator(couponRepo, allocatorConfig, logger)
	issuanceService := service.NewIssuanceService(allocator, couponRepo, transactions, cfg.Allocation.AmountPerCoupon, logger)
	authService := service.NewAuthService(cashiers, sealer, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Auth: handler.NewAuthHandler(authService, handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			MaxAge: cfg.Session.MaxAge,
			Secure: cfg.Session.Secure,
		}, logger),
		Coupon:      handler.NewCouponHandler(issuanceService, logger),
		Transaction: handler.NewTransactionHandler(issuanceService, logger),
		Health:      handler.NewHealthHandler(registry, logger),
	}

	// Initialize router
	mux := router.New(handlers, router.SessionConfig{
		Opener:     sealer,
		CookieName: cfg.Session.CookieName,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Int("outlets", directory.Len()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// In-flight allocations finish or roll back before pools close.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
