package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tr8energy/energy-bot/internal/config"
	"github.com/tr8energy/energy-bot/internal/payment"
	"github.com/tr8energy/energy-bot/internal/storage"
	"github.com/tr8energy/energy-bot/internal/telegram"
	"github.com/tr8energy/energy-bot/internal/trongrid"
	"github.com/tr8energy/energy-bot/internal/tronsave"
)

func main() {
	// Setup logger
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(log)

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found")
	}

	// Load config
	cfg := config.Load()

	if cfg.BotToken == "" {
		log.Error("BOT_TOKEN is required")
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Error("init storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage initialized", "path", cfg.DBPath)

	// Initialize chain API client
	chain := trongrid.NewClient(cfg.TronAPIBaseURL, cfg.TronAPIKey)
	log.Info("trongrid client initialized", "base_url", cfg.TronAPIBaseURL)

	// Initialize resource market client
	market := tronsave.NewClient(cfg.TronsaveBaseURL, cfg.TronsaveAPIKey, tronsave.Options{
		DurationSec:       cfg.TronsaveDurationSec,
		UnitPrice:         cfg.TronsaveUnitPrice,
		AllowPartialFill:  cfg.TronsaveAllowPartialFill,
		MinDelegateAmount: cfg.TronsaveMinDelegateAmount,
	}, log)
	log.Info("tronsave client initialized", "base_url", cfg.TronsaveBaseURL)

	// Initialize telegram bot
	tgBot, err := telegram.New(cfg, store, chain, market, log)
	if err != nil {
		log.Error("init telegram bot", "error", err)
		os.Exit(1)
	}
	log.Info("telegram bot initialized")

	// Initialize payment verification and reconciliation watcher
	observer := payment.NewObserver(cfg, chain, log)
	watcher := payment.NewWatcher(store, observer, market, tgBot, log)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start payment watcher
	go watcher.Start(ctx, cfg.CheckInterval)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	// Start bot polling
	log.Info("starting bot polling...")
	tgBot.Start(ctx)
}
