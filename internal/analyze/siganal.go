package analyze

import "github.com/cruxifeedsy/cruxifeed-bot/internal/model"

// RSI thresholds. A setup is reported only when all three indicators agree.
const (
	oversoldRSI   = 30.0
	overboughtRSI = 70.0
)

// Evaluate classifies a snapshot. First match wins:
//   - BUY when RSI is oversold, price is above its moving average and MACD
//     is above its signal line;
//   - SELL when RSI is overbought, price is below its moving average and
//     MACD is below its signal line;
//   - WAIT otherwise, including for an invalid snapshot.
func Evaluate(s model.IndicatorSnapshot) model.Signal {
	if !s.Valid() {
		return model.SignalWait
	}
	if s.RSI < oversoldRSI && s.Price > s.MovingAverage && s.MACD > s.MACDSignal {
		return model.SignalBuy
	}
	if s.RSI > overboughtRSI && s.Price < s.MovingAverage && s.MACD < s.MACDSignal {
		return model.SignalSell
	}
	return model.SignalWait
}
