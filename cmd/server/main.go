package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/osutrack-bridge/internal/command"
	"github.com/osutrack-bridge/internal/config"
	"github.com/osutrack-bridge/internal/handler"
	"github.com/osutrack-bridge/internal/kafka"
	"github.com/osutrack-bridge/internal/osuapi"
	"github.com/osutrack-bridge/internal/osutrack"
	"github.com/osutrack-bridge/internal/service"
	"github.com/osutrack-bridge/internal/vault"
	"github.com/osutrack-bridge/internal/websocket"
	"github.com/osutrack-bridge/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load .env before the config file so ${VAR} expansion sees it
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded environment from .env")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize credential vault
	logger.Info("opening credential vault", "backend", cfg.Vault.Backend)
	credVault, err := vault.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open credential vault", "error", err)
		os.Exit(1)
	}
	defer credVault.Close()
	logger.Info("credential vault ready")

	// Initialize upstream API clients
	osuClient := osuapi.New(&cfg.OsuAPI, logger)
	trackClient := osutrack.New(&cfg.OsuTrack, logger)
	logger.Info("upstream clients initialized",
		"osu_api", cfg.OsuAPI.BaseURL,
		"osutrack", cfg.OsuTrack.BaseURL,
	)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Initialize the bridge service
	bridge := service.NewBridgeService(
		credVault,
		osuClient,
		trackClient,
		&cfg.Upload,
		logger,
	)

	// Set the WebSocket hub on the service for broadcasting
	bridge.SetHub(wsHub)

	// Command table for the chat webhook
	registry := command.NewRegistry(bridge, logger)

	// Initialize tracker worker for periodic re-uploads
	trackerWorker := worker.NewTrackerWorker(bridge, &cfg.Tracker, logger)
	if cfg.Tracker.Enabled {
		if err := trackerWorker.Start(ctx); err != nil {
			logger.Error("failed to start tracker worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize Kafka consumer for queued upload jobs
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		var err error
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, bridge, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else {
			if err := kafkaConsumer.Start(); err != nil {
				logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
				kafkaConsumer = nil
			} else {
				logger.Info("Kafka consumer started successfully")
			}
		}
	}

	// Initialize HTTP handler with WebSocket hub
	httpHandler := handler.NewHandler(registry, wsHub, cfg.Server.WebhookToken, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		logger.Info("command webhook available at /api/v1/commands")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop tracker worker
	if err := trackerWorker.Stop(); err != nil {
		logger.Error("failed to stop tracker worker", "error", err)
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}
