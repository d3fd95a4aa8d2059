package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/xerk-dot/monero-trading-bot/internal/backtest"
)

// ExcelReporter writes backtest results to an Excel workbook.
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// WriteResults writes a Trades sheet and a Summary sheet to path, creating
// parent directories as needed.
func (r *ExcelReporter) WriteResults(result *backtest.Result, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const tradesSheet = "Trades"
	const summarySheet = "Summary"

	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return err
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	if err := r.writeTradesSheet(fx, tradesSheet, result, headerStyle); err != nil {
		return err
	}
	if err := r.writeSummarySheet(fx, summarySheet, result, headerStyle); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, result *backtest.Result, headerStyle int) error {
	headers := []string{"#", "Position ID", "Side", "Entry Time", "Exit Time",
		"Entry Price", "Exit Price", "Units", "P&L", "Return %", "Reason"}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := fx.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, trade := range result.Trades {
		row := i + 2
		values := []interface{}{
			i + 1,
			trade.PositionID,
			string(trade.Side),
			trade.EntryTime.Format("2006-01-02 15:04"),
			trade.ExitTime.Format("2006-01-02 15:04"),
			trade.EntryPrice,
			trade.ExitPrice,
			trade.Units,
			trade.PnL,
			trade.ReturnPct,
			string(trade.Reason),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := fx.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	return fx.SetColWidth(sheet, "B", "E", 18)
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, result *backtest.Result, headerStyle int) error {
	m := result.Metrics

	// Spreadsheet cells cannot hold +Inf
	profitFactor := interface{}(m.ProfitFactor)
	if math.IsInf(m.ProfitFactor, 1) {
		profitFactor = "Inf"
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Initial Capital", result.InitialCapital},
		{"Final Capital", result.FinalCapital},
		{"Total Return %", m.TotalReturn},
		{"Max Drawdown %", m.MaxDrawdown},
		{"Sharpe Ratio", m.SharpeRatio},
		{"Profit Factor", profitFactor},
		{"Total Trades", m.TotalTrades},
		{"Winning Trades", m.WinningTrades},
		{"Losing Trades", m.LosingTrades},
		{"Win Rate %", m.WinRate},
		{"Avg Win", m.AvgWin},
		{"Avg Loss", m.AvgLoss},
		{"Bars Processed", result.BarsProcessed},
	}

	for i, row := range rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+1)
			if err := fx.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
			if i == 0 {
				fx.SetCellStyle(sheet, cell, cell, headerStyle)
			}
		}
	}

	return fx.SetColWidth(sheet, "A", "A", 20)
}
