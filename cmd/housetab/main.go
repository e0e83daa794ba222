package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"housetab/internal/amqp"
	"housetab/internal/cache"
	"housetab/internal/cli"
	"housetab/internal/core"
	apphttp "housetab/internal/http"
	"housetab/internal/services"
	"housetab/internal/smart/gemini"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(logger, cfg)

	// Change events are optional; without a broker the ledger still works,
	// only the off-device backup goes stale.
	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ledgerSvc := services.NewLedgerService(store, publisher)

	var smartSvc *services.SmartService
	if cfg.GeminiAPIKey != "" {
		parser, err := gemini.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Failed to initialize Gemini client", "error", err)
			os.Exit(1)
		}
		drafts := cache.NewLRUCache[core.Draft](cfg.ParseCacheSize, cfg.ParseCacheTTL)
		smartSvc = services.NewSmartService(parser, drafts)
		logger.Info("Smart parsing enabled", "model", cfg.GeminiModel)
	} else {
		logger.Info("Smart parsing disabled - no GEMINI_API_KEY provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledgerSvc, smartSvc)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			amqpClient.Close()
		}
		if err := ledgerSvc.Close(); err != nil {
			logger.Error("Store close error", "error", err)
		}
	})

	logger.Info("Starting housetab server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
