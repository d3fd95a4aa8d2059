package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/xerk-dot/monero-trading-bot/internal/bot"
	"github.com/xerk-dot/monero-trading-bot/internal/config"
	"github.com/xerk-dot/monero-trading-bot/internal/monitoring"
	"github.com/xerk-dot/monero-trading-bot/internal/notifications"
	sig "github.com/xerk-dot/monero-trading-bot/internal/signal"
	"github.com/xerk-dot/monero-trading-bot/pkg/data"
)

func main() {
	configFile := flag.String("config", "", "optional YAML config file overlaying environment variables")
	dataFile := flag.String("data", "", "historical data CSV for paper trading (overrides DATA_FILE)")
	flag.Parse()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
		if err != nil {
			log.Fatalf("❌ Failed to load config: %v", err)
		}
	} else {
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			log.Fatalf("❌ Invalid configuration: %v", err)
		}
	}

	if *dataFile != "" {
		cfg.Trading.DataFile = *dataFile
	}

	provider := data.NewCSVProvider()
	bars, err := provider.LoadData(cfg.Trading.DataFile)
	if err != nil {
		log.Fatalf("❌ Failed to load market data: %v", err)
	}
	log.Printf("Loaded %d bars for %s", len(bars), cfg.Trading.Symbol)

	health := monitoring.NewHealthChecker()
	notifier := notifications.NewTelegramNotifier(
		cfg.Notifications.TelegramToken,
		cfg.Notifications.TelegramChatID,
	)

	startMonitoringServers(cfg, health)

	strategy := sig.NewMomentumStrategy(10, 30)
	feed := bot.NewReplayFeed(bars)
	b := bot.New(cfg, feed, strategy, notifier, health)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("❌ Bot stopped with error: %v", err)
	}

	metrics := b.Manager().Metrics()
	log.Printf("final capital: $%.2f (%d trades, win rate %.1f%%)",
		metrics.CurrentCapital, metrics.TotalTrades, metrics.WinRate)

	os.Exit(0)
}

// startMonitoringServers serves the Prometheus and health endpoints in the
// background. Failures are logged, not fatal: the bot can trade without
// observability endpoints.
func startMonitoringServers(cfg *config.Config, health *monitoring.HealthChecker) {
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", monitoring.NewMetricsHandler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		log.Printf("metrics listening on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.HealthPort)
		mux := http.NewServeMux()
		mux.Handle("/health", health)
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		log.Printf("health listening on %s/health", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("health server error: %v", err)
		}
	}()
}
