package model

import "math"

// IndicatorSnapshot holds the latest indicator values derived from one
// PriceSeries.
type IndicatorSnapshot struct {
	RSI           float64 `json:"rsi"`
	MovingAverage float64 `json:"moving_average"`
	MACD          float64 `json:"macd"`
	MACDSignal    float64 `json:"macd_signal"`
	Price         float64 `json:"price"`
}

// Valid reports whether every field is a finite number. An invalid snapshot
// must not be evaluated.
func (s IndicatorSnapshot) Valid() bool {
	for _, v := range []float64{s.RSI, s.MovingAverage, s.MACD, s.MACDSignal, s.Price} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
