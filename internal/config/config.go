package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xerk-dot/monero-trading-bot/internal/risk"
)

// Config is the full bot configuration. Values come from the environment
// with sensible defaults; a YAML file can overlay everything.
type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	Trading struct {
		Symbol         string        `yaml:"symbol"`
		InitialCapital float64       `yaml:"initial_capital"`
		Interval       time.Duration `yaml:"interval"`
		DataFile       string        `yaml:"data_file"`
		Commission     float64       `yaml:"commission"`
		Slippage       float64       `yaml:"slippage"`
	} `yaml:"trading"`

	Risk risk.Config `yaml:"risk"`

	Monitoring struct {
		PrometheusPort int `yaml:"prometheus_port"`
		HealthPort     int `yaml:"health_port"`
	} `yaml:"monitoring"`

	Notifications struct {
		TelegramToken  string `yaml:"telegram_token"`
		TelegramChatID string `yaml:"telegram_chat_id"`
	} `yaml:"notifications"`
}

// Load builds a configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Risk:        loadRiskConfig(),
	}

	cfg.Trading.Symbol = getEnv("TRADING_SYMBOL", "XMRUSDT")
	cfg.Trading.InitialCapital = getEnvFloat("INITIAL_CAPITAL", 10000.0)
	cfg.Trading.Interval = getEnvDuration("TRADING_INTERVAL", 12*time.Hour)
	cfg.Trading.DataFile = getEnv("DATA_FILE", "")
	cfg.Trading.Commission = getEnvFloat("COMMISSION", 0.001)
	cfg.Trading.Slippage = getEnvFloat("SLIPPAGE", 0.0005)

	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 8000)
	cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 8001)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	return cfg
}

// LoadFile loads environment defaults and overlays them with a YAML file.
func LoadFile(path string) (*Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the risk engine cannot run with.
func (c *Config) Validate() error {
	if c.Trading.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %.2f", c.Trading.InitialCapital)
	}
	if c.Risk.MaxPortfolioExposure <= 0 || c.Risk.MaxPortfolioExposure > 1 {
		return fmt.Errorf("max portfolio exposure must be in (0, 1], got %.2f", c.Risk.MaxPortfolioExposure)
	}
	if c.Risk.MinStopDistancePct >= c.Risk.MaxStopDistancePct {
		return fmt.Errorf("min stop distance %.4f must be below max %.4f", c.Risk.MinStopDistancePct, c.Risk.MaxStopDistancePct)
	}
	if c.Risk.MinRiskRewardRatio <= 0 {
		return fmt.Errorf("min risk/reward ratio must be positive, got %.2f", c.Risk.MinRiskRewardRatio)
	}
	return nil
}

func loadRiskConfig() risk.Config {
	defaults := risk.DefaultConfig()

	return risk.Config{
		RiskPerTrade:           getEnvFloat("RISK_PER_TRADE", defaults.RiskPerTrade),
		MaxPositionSize:        getEnvFloat("MAX_POSITION_SIZE", defaults.MaxPositionSize),
		MaxPortfolioExposure:   getEnvFloat("MAX_PORTFOLIO_EXPOSURE", defaults.MaxPortfolioExposure),
		MaxDrawdown:            getEnvFloat("MAX_DRAWDOWN", defaults.MaxDrawdown),
		MaxConsecutiveLosses:   getEnvInt("MAX_CONSECUTIVE_LOSSES", defaults.MaxConsecutiveLosses),
		DailyLossLimit:         getEnvFloat("DAILY_LOSS_LIMIT", defaults.DailyLossLimit),
		MinRiskRewardRatio:     getEnvFloat("MIN_RISK_REWARD_RATIO", defaults.MinRiskRewardRatio),
		DefaultATRMultiplier:   getEnvFloat("DEFAULT_ATR_MULTIPLIER", defaults.DefaultATRMultiplier),
		MinStopDistancePct:     getEnvFloat("MIN_STOP_DISTANCE_PCT", defaults.MinStopDistancePct),
		MaxStopDistancePct:     getEnvFloat("MAX_STOP_DISTANCE_PCT", defaults.MaxStopDistancePct),
		TrailingStopTriggerPct: getEnvFloat("TRAILING_STOP_TRIGGER_PCT", defaults.TrailingStopTriggerPct),
		TrailingStopPct:        getEnvFloat("TRAILING_STOP_PCT", defaults.TrailingStopPct),
		RiskFreeRate:           getEnvFloat("RISK_FREE_RATE", defaults.RiskFreeRate),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
