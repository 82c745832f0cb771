package model

// Candle represents a single price candle
type Candle struct {
	Datetime string  `json:"datetime"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume,omitempty"`
}

// PriceSeries is an ordered sequence of closing prices, oldest first.
// A fetched series is owned by the caller that fetched it and is never
// modified in place.
type PriceSeries []float64

// Closes extracts closing prices from candles that are already in
// chronological order.
func Closes(candles []Candle) PriceSeries {
	closes := make(PriceSeries, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// TwelveResponse represents the API response from Twelve Data
type TwelveResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   int64   `json:"volume,string,omitempty"`
	} `json:"values"`
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// AlphaVantageBar is one entry of an Alpha Vantage FX_INTRADAY time series.
type AlphaVantageBar struct {
	Open  string `json:"1. open"`
	High  string `json:"2. high"`
	Low   string `json:"3. low"`
	Close string `json:"4. close"`
}
