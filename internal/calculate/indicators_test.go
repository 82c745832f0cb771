package calculate

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func checkSeries(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: len = %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("%s[%d] = %v, want undefined", name, i, got[i])
			}
			continue
		}
		if !almostEqual(got[i], want[i]) {
			t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func TestSMA(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		prices []float64
		period int
		want   []float64
	}{
		{"rolling mean", []float64{1, 2, 3, 4, 5}, 3, []float64{nan, nan, 2, 3, 4}},
		{"period equals length", []float64{2, 4}, 2, []float64{nan, 3}},
		{"series shorter than window", []float64{1, 2}, 3, []float64{nan, nan}},
		{"zero period", []float64{1, 2, 3}, 0, []float64{nan, nan, nan}},
		{"empty", nil, 3, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkSeries(t, "SMA", SMA(tt.prices, tt.period), tt.want)
		})
	}
}

func TestRSI(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		prices []float64
		period int
		want   []float64
	}{
		{"mixed steps", []float64{1, 2, 1, 2, 3}, 2, []float64{nan, nan, 50, 50, 100}},
		{"only gains", []float64{1, 2, 3, 4}, 3, []float64{nan, nan, nan, 100}},
		{"only losses", []float64{4, 3, 2, 1}, 3, []float64{nan, nan, nan, 0}},
		{"gains outweigh losses", []float64{10, 12, 11, 13}, 3, []float64{nan, nan, nan, 80}},
		{"too short", []float64{1, 2, 3}, 3, []float64{nan, nan, nan}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkSeries(t, "RSI", RSI(tt.prices, tt.period), tt.want)
		})
	}
}

func TestRSIBounded(t *testing.T) {
	prices := make([]float64, 200)
	for i := range prices {
		prices[i] = 1.1 + 0.01*math.Sin(float64(i)*0.7) + 0.002*math.Cos(float64(i)*2.3)
	}

	for _, period := range []int{2, 5, 14} {
		for i, v := range RSI(prices, period) {
			if i < period {
				if !math.IsNaN(v) {
					t.Fatalf("period %d: RSI[%d] = %v, want undefined", period, i, v)
				}
				continue
			}
			if v < 0 || v > 100 {
				t.Fatalf("period %d: RSI[%d] = %v out of [0,100]", period, i, v)
			}
		}
	}
}

func TestEMA(t *testing.T) {
	nan := math.NaN()
	checkSeries(t, "EMA", EMA([]float64{1, 2, 3}, 3), []float64{nan, nan, 2.25})
	checkSeries(t, "EMA", EMA([]float64{5}, 1), []float64{5})
	checkSeries(t, "EMA", EMA([]float64{1, 2}, 0), []float64{nan, nan})
}

func TestMACD(t *testing.T) {
	nan := math.NaN()

	t.Run("small periods", func(t *testing.T) {
		macd, signal := MACD([]float64{1, 2, 3, 4}, 2, 3, 2)
		checkSeries(t, "macd", macd, []float64{nan, nan, 0.30555555555555536, 0.39351851851851816})
		checkSeries(t, "signal", signal, []float64{nan, nan, 0.30555555555555536, 0.3641975308641972})
	})

	t.Run("flat prices", func(t *testing.T) {
		prices := make([]float64, 40)
		for i := range prices {
			prices[i] = 1.25
		}
		macd, signal := MACD(prices, 12, 26, 9)
		for i := 0; i < 25; i++ {
			if !math.IsNaN(macd[i]) || !math.IsNaN(signal[i]) {
				t.Fatalf("index %d defined before slow window", i)
			}
		}
		for i := 25; i < len(prices); i++ {
			if !almostEqual(macd[i], 0) || !almostEqual(signal[i], 0) {
				t.Fatalf("index %d: macd=%v signal=%v, want 0", i, macd[i], signal[i])
			}
		}
	})

	t.Run("shorter than slow window", func(t *testing.T) {
		macd, signal := MACD(make([]float64, 25), 12, 26, 9)
		if _, ok := Last(macd); ok {
			t.Error("macd defined for 25 points")
		}
		if _, ok := Last(signal); ok {
			t.Error("signal defined for 25 points")
		}
	})
}

func TestLast(t *testing.T) {
	if _, ok := Last(nil); ok {
		t.Error("Last(nil) reported defined")
	}
	if _, ok := Last([]float64{1, math.NaN()}); ok {
		t.Error("Last reported NaN as defined")
	}
	if v, ok := Last([]float64{math.NaN(), 2}); !ok || v != 2 {
		t.Errorf("Last = %v, %v; want 2, true", v, ok)
	}
}
