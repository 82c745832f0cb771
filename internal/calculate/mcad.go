package calculate

// MACD calculates the MACD line (EMA(fast) - EMA(slow)) and its signal line
// (EMA(signalPeriod) of the MACD line). The line is defined from index slow-1;
// the signal line is seeded with the first defined MACD value and so is
// defined on the same indices.
func MACD(prices []float64, fastPeriod, slowPeriod, signalPeriod int) (macd, signal []float64) {
	macd = undefinedSeries(len(prices))
	signal = undefinedSeries(len(prices))
	if fastPeriod <= 0 || slowPeriod <= 0 || signalPeriod <= 0 || len(prices) < slowPeriod {
		return macd, signal
	}

	fastEMA := emaRecurrence(prices, fastPeriod)
	slowEMA := emaRecurrence(prices, slowPeriod)

	start := slowPeriod - 1
	if fastPeriod > slowPeriod {
		start = fastPeriod - 1
	}
	if start >= len(prices) {
		return macd, signal
	}
	line := make([]float64, 0, len(prices)-start)
	for i := start; i < len(prices); i++ {
		macd[i] = fastEMA[i] - slowEMA[i]
		line = append(line, macd[i])
	}

	smoothed := emaRecurrence(line, signalPeriod)
	for i, v := range smoothed {
		signal[start+i] = v
	}
	return macd, signal
}
