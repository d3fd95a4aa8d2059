package notifications

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xerk-dot/monero-trading-bot/internal/risk"
)

// AlertLevel controls the emoji prefix of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertSuccess  AlertLevel = "success"
	AlertWarning  AlertLevel = "warning"
	AlertError    AlertLevel = "error"
	AlertCritical AlertLevel = "critical"
)

// Notifier delivers human-readable alerts about trading activity.
type Notifier interface {
	SendAlert(level AlertLevel, message string) error
}

// TelegramNotifier sends alerts via the Telegram Bot API. With no token or
// chat id configured it logs the alert instead of sending it.
type TelegramNotifier struct {
	token   string
	chatID  string
	enabled bool
}

// NewTelegramNotifier creates a Telegram notifier.
func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		enabled: token != "" && chatID != "",
	}
}

// SendAlert delivers a formatted alert message.
func (t *TelegramNotifier) SendAlert(level AlertLevel, message string) error {
	if !t.enabled {
		log.Printf("telegram alert (would send): %s", message)
		return nil
	}

	text := fmt.Sprintf("%s *Trading Bot Alert*\n\n%s", levelEmoji(level), message)

	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)

	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("text", text)
	data.Set("parse_mode", "Markdown")

	resp, err := http.Post(apiURL, "application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// SendPositionOpened formats and sends a position-opened alert.
func (t *TelegramNotifier) SendPositionOpened(symbol string, position risk.Position, riskReward float64) error {
	message := fmt.Sprintf(
		"🎯 *POSITION OPENED*\n\n"+
			"*Symbol:* %s\n*Side:* %s\n*Entry Price:* $%.4f\n"+
			"*Size:* %.4f units ($%.2f)\n*Stop Loss:* $%.4f\n"+
			"*Take Profit:* $%.4f\n*Risk/Reward:* %.2f",
		symbol, strings.ToUpper(string(position.Side)), position.EntryPrice,
		position.Units, position.EntryPrice*position.Units, position.StopLoss,
		position.TakeProfit, riskReward,
	)
	return t.SendAlert(AlertSuccess, message)
}

// SendPositionClosed formats and sends a position-closed alert.
func (t *TelegramNotifier) SendPositionClosed(symbol string, trade risk.ClosedTrade) error {
	level := AlertSuccess
	emoji := "📈"
	if trade.PnL < 0 {
		level = AlertWarning
		emoji = "📉"
	}

	message := fmt.Sprintf(
		"%s *POSITION CLOSED*\n\n"+
			"*Symbol:* %s\n*Side:* %s\n*Exit Price:* $%.4f\n"+
			"*P&L:* $%.2f (%.2f%%)\n*Duration:* %s\n*Reason:* %s",
		emoji, symbol, strings.ToUpper(string(trade.Side)), trade.ExitPrice,
		trade.PnL, trade.ReturnPct, trade.Duration.Round(time.Second).String(),
		strings.ReplaceAll(string(trade.Reason), "_", " "),
	)
	return t.SendAlert(level, message)
}

// SendRiskAlert reports a risk-management rejection or limit breach.
func (t *TelegramNotifier) SendRiskAlert(reason string) error {
	return t.SendAlert(AlertCritical, fmt.Sprintf("🛑 *RISK LIMIT*\n\n%s", reason))
}

func levelEmoji(level AlertLevel) string {
	switch level {
	case AlertSuccess:
		return "✅"
	case AlertWarning:
		return "⚠️"
	case AlertError:
		return "❌"
	case AlertCritical:
		return "🚨"
	default:
		return "ℹ️"
	}
}
