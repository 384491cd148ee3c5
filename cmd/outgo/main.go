package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"outgo/internal/amqp"
	"outgo/internal/auth"
	"outgo/internal/config"
	apphttp "outgo/internal/http"
	applog "outgo/internal/log"
	"outgo/internal/services"
	"outgo/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Import report events are optional; without a broker URL imports are
	// only logged locally.
	var reporter services.ImportReporter
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		reporter = amqpClient
		logger.Info("AMQP report publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	expenseService := services.NewExpenseService(repo, cfg.Categories)
	summaryService := services.NewSummaryService(repo)
	alertGenerator := services.NewAlertGenerator(repo, cfg.Budgets)
	importer := services.NewCSVImporter(expenseService, cfg.MaxUploadBytes, reporter)
	authService := auth.NewService(repo, repo)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:            authService,
		Expenses:        expenseService,
		Summaries:       summaryService,
		Alerts:          alertGenerator,
		Importer:        importer,
		DefaultPageSize: cfg.DefaultPageSize,
	})

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	// Periodic session sweep
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := authService.PurgeExpired(ctx); err != nil {
					logger.Error("Session purge failed", "error", err)
				}
			}
		}
	}()

	logger.Info("Starting outgo server", "port", cfg.Port, "categories", len(cfg.Categories), "budgets", cfg.Budgets.Len())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
