package twelvedata

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

const defaultBaseURL = "https://api.twelvedata.com"

// Client is the TwelveData API client
type Client struct {
	apiKey     string
	baseURL    string
	outputSize int
	minPoints  int
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
	OutputSize     int
	// MinPoints is the shortest series reported as usable.
	MinPoints int
}

var _ market.Gateway = (*Client)(nil)

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	// Apply defaults if not set
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL
	}
	if options.OutputSize == 0 {
		options.OutputSize = 100
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    options.BaseURL,
		outputSize: options.OutputSize,
		minPoints:  options.MinPoints,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
		}),
		logger: log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// GetCandles fetches candle data from Twelve Data API, oldest first.
func (c *Client) GetCandles(ctx context.Context, symbol model.Symbol, interval model.Interval) ([]model.Candle, error) {
	query := url.Values{}
	query.Set("symbol", symbol.Slash())
	query.Set("interval", interval.ProviderName())
	query.Set("outputsize", strconv.Itoa(c.outputSize))
	query.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "/time_series?" + query.Encode()

	c.logger.Debug().Str("symbol", symbol.Slash()).Str("interval", interval.ProviderName()).Msg("Fetching candles")

	// Create a new request with context
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
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

	var data model.TwelveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", truncate(body)).Msg("Error parsing JSON")
		return nil, market.Unavailable("parsing JSON", err)
	}

	if data.Status == "error" {
		c.logger.Warn().Int("code", data.Code).Str("message", data.Message).Msg("Twelve Data API error")
		return nil, market.Unavailable(fmt.Sprintf("Twelve Data API error %d: %s", data.Code, data.Message), nil)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", symbol.Slash()).Msg("No candles in response")
		return nil, market.Unavailable("empty data returned", nil)
	}

	// Twelve Data returns newest first; indicators need oldest first.
	sort.Slice(data.Values, func(i, j int) bool {
		return data.Values[i].Datetime < data.Values[j].Datetime
	})

	candles := make([]model.Candle, 0, len(data.Values))
	for _, v := range data.Values {
		candles = append(candles, model.Candle{
			Datetime: v.Datetime,
			Open:     v.Open,
			High:     v.High,
			Low:      v.Low,
			Close:    v.Close,
			Volume:   v.Volume,
		})
	}

	c.logger.Debug().Int("count", len(candles)).Msg("Fetched candles")
	return candles, nil
}

// Fetch implements market.Gateway.
func (c *Client) Fetch(ctx context.Context, symbol model.Symbol, interval model.Interval) (model.PriceSeries, error) {
	candles, err := c.GetCandles(ctx, symbol, interval)
	if err != nil {
		return nil, err
	}
	if len(candles) < c.minPoints {
		return nil, market.Unavailable(fmt.Sprintf("got %d points, need %d", len(candles), c.minPoints), nil)
	}
	return model.Closes(candles), nil
}

func truncate(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
