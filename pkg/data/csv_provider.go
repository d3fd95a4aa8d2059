package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/xerk-dot/monero-trading-bot/pkg/types"
)

// CSVColumnMapping defines the column positions for a CSV format.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat expects: timestamp,open,high,low,close,volume
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}

// CSVProvider implements Provider for CSV files
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a new CSV data provider with default format
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{
		format: DefaultCSVFormat,
	}
}

// NewCSVProviderWithFormat creates a new CSV data provider with custom format
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{
		format: format,
	}
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData loads historical data from a CSV file. If the file does not
// exist, a synthetic sample series is generated instead so backtests can
// run out of the box.
func (p *CSVProvider) LoadData(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		if os.IsNotExist(err) {
			log.Println("⚠️  Historical data file not found, generating sample data...")
			return p.generateSampleData(), nil
		}
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, err
	}

	var data []types.OHLCV

	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %v", lineNum, err)
		}
		lineNum++

		if len(record) < p.format.MinColumns {
			log.Printf("⚠️ Insufficient columns at line %d (expected %d, got %d), skipping", lineNum, p.format.MinColumns, len(record))
			continue
		}

		bar, err := p.parseRecord(record)
		if err != nil {
			log.Printf("⚠️ Skipping line %d: %v", lineNum, err)
			continue
		}

		data = append(data, bar)
	}

	if err := p.ValidateData(data); err != nil {
		return nil, fmt.Errorf("invalid data in %s: %w", source, err)
	}

	return data, nil
}

func (p *CSVProvider) parseRecord(record []string) (types.OHLCV, error) {
	timestamp, err := time.Parse(p.format.DateFormat, record[p.format.TimestampCol])
	if err != nil {
		// Fall back to unix milliseconds, the other common export format
		if ms, msErr := strconv.ParseInt(record[p.format.TimestampCol], 10, 64); msErr == nil {
			timestamp = time.UnixMilli(ms).UTC()
		} else {
			return types.OHLCV{}, fmt.Errorf("invalid timestamp %q: %v", record[p.format.TimestampCol], err)
		}
	}

	open, err := strconv.ParseFloat(record[p.format.OpenCol], 64)
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid open price %q: %v", record[p.format.OpenCol], err)
	}
	high, err := strconv.ParseFloat(record[p.format.HighCol], 64)
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid high price %q: %v", record[p.format.HighCol], err)
	}
	low, err := strconv.ParseFloat(record[p.format.LowCol], 64)
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid low price %q: %v", record[p.format.LowCol], err)
	}
	closePrice, err := strconv.ParseFloat(record[p.format.CloseCol], 64)
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid close price %q: %v", record[p.format.CloseCol], err)
	}
	volume, err := strconv.ParseFloat(record[p.format.VolumeCol], 64)
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid volume %q: %v", record[p.format.VolumeCol], err)
	}

	return types.OHLCV{
		Timestamp: timestamp,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}

// ValidateData validates the integrity of the loaded data
func (p *CSVProvider) ValidateData(data []types.OHLCV) error {
	return ValidateSeries(data)
}

// generateSampleData produces a year of 12h bars as a random walk around a
// plausible XMR price level.
func (p *CSVProvider) generateSampleData() []types.OHLCV {
	rng := rand.New(rand.NewSource(42))

	const bars = 730 // one year of 12h candles
	data := make([]types.OHLCV, 0, bars)

	price := 150.0
	start := time.Now().AddDate(-1, 0, 0).Truncate(12 * time.Hour)

	for i := 0; i < bars; i++ {
		drift := rng.NormFloat64() * 0.015
		open := price
		closePrice := open * (1 + drift)
		high := open * (1 + rng.Float64()*0.01)
		if closePrice > high {
			high = closePrice * (1 + rng.Float64()*0.005)
		}
		low := open * (1 - rng.Float64()*0.01)
		if closePrice < low {
			low = closePrice * (1 - rng.Float64()*0.005)
		}

		data = append(data, types.OHLCV{
			Timestamp: start.Add(time.Duration(i) * 12 * time.Hour),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    1000 + rng.Float64()*9000,
		})

		price = closePrice
	}

	return data
}
