package reporting

import (
	"fmt"
	"math"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/xerk-dot/monero-trading-bot/internal/backtest"
	"github.com/xerk-dot/monero-trading-bot/internal/risk"
)

// ConsoleReporter renders backtest results as terminal tables.
type ConsoleReporter struct{}

// NewConsoleReporter creates a new console reporter
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// PrintSummary renders the portfolio performance summary.
func (r *ConsoleReporter) PrintSummary(result *backtest.Result) {
	m := result.Metrics

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BACKTEST RESULTS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"💰 Initial Capital", fmt.Sprintf("$%.2f", result.InitialCapital)},
		{"💰 Final Capital", fmt.Sprintf("$%.2f", result.FinalCapital)},
		{"📈 Total Return", fmt.Sprintf("%.2f%%", m.TotalReturn)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdown)},
		{"📊 Sharpe Ratio", fmt.Sprintf("%.2f", m.SharpeRatio)},
		{"💹 Profit Factor", formatProfitFactor(m.ProfitFactor)},
	})

	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"🔄 Total Trades", fmt.Sprintf("%d", m.TotalTrades)},
		{"✅ Winning Trades", fmt.Sprintf("%d (%.1f%%)", m.WinningTrades, m.WinRate)},
		{"❌ Losing Trades", fmt.Sprintf("%d", m.LosingTrades)},
		{"📈 Avg Win", fmt.Sprintf("$%.2f", m.AvgWin)},
		{"📉 Avg Loss", fmt.Sprintf("$%.2f", m.AvgLoss)},
		{"🕯️ Bars Processed", fmt.Sprintf("%d", result.BarsProcessed)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 18, WidthMax: 24, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

// PrintTrades renders the closed trade log, most recent last.
func (r *ConsoleReporter) PrintTrades(trades []risk.ClosedTrade) {
	if len(trades) == 0 {
		fmt.Println("No trades executed.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("TRADE LOG")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"#", "Side", "Entry", "Exit", "Units", "P&L", "Return", "Reason"})

	for i, trade := range trades {
		t.AppendRow(table.Row{
			i + 1,
			string(trade.Side),
			fmt.Sprintf("$%.4f", trade.EntryPrice),
			fmt.Sprintf("$%.4f", trade.ExitPrice),
			fmt.Sprintf("%.4f", trade.Units),
			fmt.Sprintf("$%.2f", trade.PnL),
			fmt.Sprintf("%.2f%%", trade.ReturnPct),
			string(trade.Reason),
		})
	}

	t.Render()
	fmt.Println()
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", pf)
}
