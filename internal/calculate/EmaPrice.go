package calculate

// EMA calculates the exponential moving average with α = 2/(span+1), seeded
// with the first price. The recurrence starts at index 0 but values before
// index span-1 are reported as NaN.
func EMA(prices []float64, span int) []float64 {
	out := undefinedSeries(len(prices))
	if span <= 0 || len(prices) == 0 {
		return out
	}

	ema := emaRecurrence(prices, span)
	for i := span - 1; i < len(prices); i++ {
		out[i] = ema[i]
	}
	return out
}

func emaRecurrence(values []float64, span int) []float64 {
	alpha := 2.0 / float64(span+1)
	ema := make([]float64, len(values))
	if len(values) == 0 {
		return ema
	}
	ema[0] = values[0]
	for i := 1; i < len(values); i++ {
		ema[i] = values[i]*alpha + ema[i-1]*(1-alpha)
	}
	return ema
}
