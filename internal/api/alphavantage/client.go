// Package alphavantage reads intraday FX series from the Alpha Vantage
// FX_INTRADAY endpoint.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/market"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
	httpClient "github.com/cruxifeedsy/cruxifeed-bot/internal/platform/http"
)

const defaultBaseURL = "https://www.alphavantage.co"

type Client struct {
	apiKey     string
	baseURL    string
	minPoints  int
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

type ClientOptions struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
	MinPoints      int
}

var _ market.Gateway = (*Client)(nil)

func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL
	}
	return &Client{
		apiKey:    options.APIKey,
		baseURL:   options.BaseURL,
		minPoints: options.MinPoints,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
		}),
		logger: log.With().Str("component", "alphavantage_client").Logger(),
	}
}

// Fetch implements market.Gateway. The provider keys bars by timestamp in a
// JSON object; keys are sorted ascending so the series is oldest first.
func (c *Client) Fetch(ctx context.Context, symbol model.Symbol, interval model.Interval) (model.PriceSeries, error) {
	query := url.Values{}
	query.Set("function", "FX_INTRADAY")
	query.Set("from_symbol", symbol.Base)
	query.Set("to_symbol", symbol.Quote)
	query.Set("interval", interval.ProviderName())
	query.Set("outputsize", "compact")
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+query.Encode(), nil)
	if err != nil {
		return nil, market.Unavailable("creating request", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, market.Unavailable("HTTP request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, market.Unavailable("reading response body", err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, market.Unavailable("parsing JSON", err)
	}

	for _, key := range []string{"Error Message", "Note", "Information"} {
		if raw, ok := payload[key]; ok {
			var msg string
			_ = json.Unmarshal(raw, &msg)
			c.logger.Warn().Str("symbol", symbol.String()).Str(key, msg).Msg("Alpha Vantage returned no data")
			return nil, market.Unavailable("Alpha Vantage: "+msg, nil)
		}
	}

	seriesKey := "Time Series FX (" + interval.ProviderName() + ")"
	raw, ok := payload[seriesKey]
	if !ok {
		return nil, market.Unavailable("missing "+seriesKey, nil)
	}

	var bars map[string]model.AlphaVantageBar
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, market.Unavailable("parsing time series", err)
	}
	if len(bars) == 0 {
		return nil, market.Unavailable("empty data returned", nil)
	}

	stamps := make([]string, 0, len(bars))
	for ts := range bars {
		stamps = append(stamps, ts)
	}
	sort.Strings(stamps)

	series := make(model.PriceSeries, 0, len(stamps))
	for _, ts := range stamps {
		v, err := strconv.ParseFloat(bars[ts].Close, 64)
		if err != nil {
			return nil, market.Unavailable(fmt.Sprintf("bad close at %s", ts), err)
		}
		series = append(series, v)
	}

	if len(series) < c.minPoints {
		return nil, market.Unavailable(fmt.Sprintf("got %d points, need %d", len(series), c.minPoints), nil)
	}

	c.logger.Debug().Str("symbol", symbol.String()).Int("count", len(series)).Msg("Fetched series")
	return series, nil
}
