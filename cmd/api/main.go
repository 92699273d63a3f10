package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hexashop/internal/cache"
	"hexashop/internal/config"
	"hexashop/internal/database"
	"hexashop/internal/handler"
	"hexashop/internal/inventory"
	"hexashop/internal/promo"
	"hexashop/internal/repository"
	"hexashop/internal/router"
	"hexashop/internal/service"

	"github.com/prometheus/client_golang/prometheus"
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
	logger.Info().Msg("starting hexashop API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize redis and the cache bus. A failed ping degrades the cache to
	// a pass-through rather than failing startup.
	redisClient := cache.NewClient(ctx, cfg.Redis, logger)
	defer redisClient.Close()
	bus := cache.New(redisClient, cfg.Cache, prometheus.DefaultRegisterer, logger)

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	promoRepo := repository.NewPromoRepository(pool, logger)

	// Seed promo codes from gzipped seed files, S3 with local fallback
	if cfg.PromoSeed.Enabled {
		seedLoader := promo.NewFileLoader(logger)
		if cfg.PromoSeed.S3 {
			s3Loader, err := promo.NewS3Loader(ctx, cfg.PromoSeed.Bucket, cfg.PromoSeed.Region, logger)
			if err != nil {
				logger.Warn().
					Err(err).
					Msg("failed to initialise S3 seed loader, falling back to local file system")
			} else {
				seedLoader = s3Loader
			}
		}
		if err := promo.Seed(ctx, seedLoader, cfg.PromoSeed.Paths, promoRepo, logger); err != nil {
			return fmt.Errorf("failed to seed promo codes: %w", err)
		}
	}

	// Initialize domain components
	ledger := inventory.NewLedger(logger)
	promoValidator := promo.NewValidator(promoRepo, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, bus, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, promoRepo, ledger, promoValidator, bus, cfg.Orders, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Product: handler.NewProductHandler(productService, bus, logger),
		Order:   handler.NewOrderHandler(orderService, logger),
		Cart:    handler.NewCartHandler(promoValidator, logger),
	}

	// Initialize router
	mux := router.New(cfg, handlers, logger)

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

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
