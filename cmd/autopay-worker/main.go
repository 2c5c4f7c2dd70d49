package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"contas/internal/amqp"
	"contas/internal/config"
	"contas/internal/services"
	"contas/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting autopay-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sync messages", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	service := services.NewObligationService(sqliteRepo, publisher)
	processor := services.NewAutoPayProcessor(service, cfg.AutoPayBank, cfg.AutoPayMethod)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runOnce := func() {
		runCtx, runCancel := context.WithTimeout(ctx, 5*time.Minute)
		defer runCancel()

		count, err := processor.Run(runCtx, time.Now())
		if err != nil {
			logger.Error("Auto pay run failed", "error", err)
			return
		}
		logger.Info("Auto pay run complete", "payments", count)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.AutoPaySchedule, runOnce); err != nil {
		logger.Error("Invalid auto pay schedule", "schedule", cfg.AutoPaySchedule, "error", err)
		os.Exit(1)
	}

	logger.Info("Auto pay scheduled", "schedule", cfg.AutoPaySchedule)

	// Catch up immediately in case the scheduled run was missed while down.
	runOnce()

	c.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()
	<-c.Stop().Done()
	logger.Info("Autopay-worker shutdown complete")
}
