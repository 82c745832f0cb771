package analyze

import (
	"errors"
	"fmt"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/calculate"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

// ErrIncompleteSnapshot means the latest value of at least one indicator is
// undefined, so no signal may be derived from the series.
var ErrIncompleteSnapshot = errors.New("incomplete indicator snapshot")

// Params holds the indicator windows.
type Params struct {
	RSIPeriod        int
	MAPeriod         int
	MACDFastPeriod   int
	MACDSlowPeriod   int
	MACDSignalPeriod int
}

// DefaultParams returns RSI(5), MA(5) and MACD(12, 26, 9).
func DefaultParams() Params {
	return Params{
		RSIPeriod:        5,
		MAPeriod:         5,
		MACDFastPeriod:   12,
		MACDSlowPeriod:   26,
		MACDSignalPeriod: 9,
	}
}

func (p Params) Validate() error {
	if p.RSIPeriod <= 0 || p.MAPeriod <= 0 || p.MACDFastPeriod <= 0 || p.MACDSlowPeriod <= 0 || p.MACDSignalPeriod <= 0 {
		return fmt.Errorf("indicator periods must be positive: %+v", p)
	}
	if p.MACDFastPeriod >= p.MACDSlowPeriod {
		return fmt.Errorf("MACD fast period %d must be below slow period %d", p.MACDFastPeriod, p.MACDSlowPeriod)
	}
	return nil
}

// MinPoints is the shortest series for which every latest value is defined.
func (p Params) MinPoints() int {
	n := p.RSIPeriod + 1
	if p.MAPeriod > n {
		n = p.MAPeriod
	}
	if p.MACDSlowPeriod > n {
		n = p.MACDSlowPeriod
	}
	return n
}

// Result is the outcome of analysing one series.
type Result struct {
	Signal   model.Signal
	Snapshot model.IndicatorSnapshot
}

// Snapshot computes the latest indicator values of a series.
func Snapshot(series model.PriceSeries, p Params) (model.IndicatorSnapshot, error) {
	if len(series) < p.MinPoints() {
		return model.IndicatorSnapshot{}, fmt.Errorf("%w: %d points, need %d", ErrIncompleteSnapshot, len(series), p.MinPoints())
	}

	rsi, rsiOK := calculate.Last(calculate.RSI(series, p.RSIPeriod))
	ma, maOK := calculate.Last(calculate.SMA(series, p.MAPeriod))
	macdLine, signalLine := calculate.MACD(series, p.MACDFastPeriod, p.MACDSlowPeriod, p.MACDSignalPeriod)
	macd, macdOK := calculate.Last(macdLine)
	macdSignal, signalOK := calculate.Last(signalLine)
	price, priceOK := calculate.Last(series)

	if !(rsiOK && maOK && macdOK && signalOK && priceOK) {
		return model.IndicatorSnapshot{}, fmt.Errorf("%w: undefined latest value", ErrIncompleteSnapshot)
	}

	snap := model.IndicatorSnapshot{
		RSI:           rsi,
		MovingAverage: ma,
		MACD:          macd,
		MACDSignal:    macdSignal,
		Price:         price,
	}
	if !snap.Valid() {
		return model.IndicatorSnapshot{}, fmt.Errorf("%w: non-finite value", ErrIncompleteSnapshot)
	}
	return snap, nil
}

// Analyze computes the snapshot of a series and classifies it.
func Analyze(series model.PriceSeries, p Params) (Result, error) {
	snap, err := Snapshot(series, p)
	if err != nil {
		return Result{}, err
	}
	return Result{Signal: Evaluate(snap), Snapshot: snap}, nil
}
