package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/xerk-dot/monero-trading-bot/internal/backtest"
	"github.com/xerk-dot/monero-trading-bot/internal/config"
	"github.com/xerk-dot/monero-trading-bot/internal/signal"
	"github.com/xerk-dot/monero-trading-bot/pkg/data"
	"github.com/xerk-dot/monero-trading-bot/pkg/reporting"
)

func main() {
	var (
		dataFile   = flag.String("data", "", "historical data CSV (timestamp,open,high,low,close,volume)")
		capital    = flag.Float64("capital", 10000, "initial capital")
		commission = flag.Float64("commission", 0.001, "commission rate per fill")
		slippage   = flag.Float64("slippage", 0.0005, "slippage rate per fill")
		fastPeriod = flag.Int("fast", 10, "fast moving average period")
		slowPeriod = flag.Int("slow", 30, "slow moving average period")
		excelOut   = flag.String("excel", "", "write results to this Excel file")
		showTrades = flag.Bool("trades", false, "print the full trade log")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	cfg.Trading.InitialCapital = *capital

	provider := data.NewCSVProvider()
	bars, err := provider.LoadData(*dataFile)
	if err != nil {
		log.Fatalf("❌ Failed to load data: %v", err)
	}
	log.Printf("Loaded %d bars", len(bars))

	strategy := signal.NewMomentumStrategy(*fastPeriod, *slowPeriod)
	engine := backtest.NewEngine(strategy, *capital, cfg.Risk, *commission, *slippage)

	result, err := engine.Run(bars)
	if err != nil {
		log.Fatalf("❌ Backtest failed: %v", err)
	}

	console := reporting.NewConsoleReporter()
	console.PrintSummary(result)
	if *showTrades {
		console.PrintTrades(result.Trades)
	}

	if *excelOut != "" {
		excel := reporting.NewExcelReporter()
		if err := excel.WriteResults(result, *excelOut); err != nil {
			log.Fatalf("❌ Failed to write Excel report: %v", err)
		}
		log.Printf("📄 Results written to %s", *excelOut)
	}
}
