package analyze

import (
	"fmt"
	"strings"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

// FormatSignal renders an on-demand reply for one pair.
func FormatSignal(symbol model.Symbol, interval model.Interval, expiration model.Expiration, res Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 Pair: %s\n", symbol))
	sb.WriteString(fmt.Sprintf("⏱ Timeframe: %s\n", interval))
	if expiration > 0 {
		sb.WriteString(fmt.Sprintf("⌛ Expiration: %s\n", expiration))
	}
	sb.WriteString(fmt.Sprintf("🚀 Signal: %s\n", res.Signal.Label()))
	sb.WriteString(formatSnapshot(res.Snapshot))
	return sb.String()
}

// FormatAlert renders a background notification.
func FormatAlert(symbol model.Symbol, interval model.Interval, res Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 %s (%s): %s\n", symbol, interval, res.Signal.Label()))
	sb.WriteString(formatSnapshot(res.Snapshot))
	return sb.String()
}

func formatSnapshot(s model.IndicatorSnapshot) string {
	return fmt.Sprintf("Price: %.5f | MA: %.5f\nRSI: %.1f | MACD: %.6f / %.6f",
		s.Price, s.MovingAverage, s.RSI, s.MACD, s.MACDSignal)
}
