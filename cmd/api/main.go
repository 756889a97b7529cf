package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-api/internal/config"
	"marketplace-api/internal/database"
	"marketplace-api/internal/dedup"
	"marketplace-api/internal/event"
	"marketplace-api/internal/handler"
	"marketplace-api/internal/payment"
	"marketplace-api/internal/repository"
	"marketplace-api/internal/router"
	"marketplace-api/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting marketplace API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	// Webhook deliveries are deduplicated in Redis so retries stay no-ops
	// across instances; without Redis a single-instance in-memory store
	// covers local development.
	var processed dedup.Store
	if cfg.Redis.Enabled {
		processed, err = dedup.NewRedisStore(ctx, cfg.Redis.Addr, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize redis dedup store: %w", err)
		}
	} else {
		processed = dedup.NewMemoryStore()
		logger.Info().Msg("using in-memory webhook dedup store (Redis disabled)")
	}
	defer processed.Close()

	var publisher event.Publisher
	if cfg.Kafka.Enabled {
		publisher = event.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	} else {
		publisher = event.NewNopPublisher()
		logger.Info().Msg("order event publishing disabled (Kafka disabled)")
	}
	defer publisher.Close()

	gateway := payment.NewClient(cfg.Stripe, logger)
	verifier := payment.NewWebhookVerifier(cfg.Stripe.WebhookSecret)

	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, publisher, logger)
	adminService := service.NewAdminService(orderRepo, publisher, logger)
	paymentService := service.NewPaymentService(orderRepo, productRepo, orderService, gateway, verifier, processed, logger)

	productHandler := handler.NewProductHandler(productService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)
	adminHandler := handler.NewAdminHandler(adminService, logger)

	mux := router.New(productHandler, orderHandler, paymentHandler, adminHandler, cfg.Auth.JWTSecret, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

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
