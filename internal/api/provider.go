// Package api selects the market data provider named in the configuration.
package api

import (
	"fmt"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/api/alphavantage"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/api/twelvedata"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/config"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/market"
)

// NewGateway builds the configured provider client. Series shorter than the
// indicator warm-up are reported as unavailable by the client itself.
func NewGateway(cfg *config.Config) (market.Gateway, error) {
	minPoints := cfg.AnalyzeParams().MinPoints()

	switch cfg.Provider {
	case config.ProviderTwelveData:
		return twelvedata.NewClient(twelvedata.ClientOptions{
			APIKey:         cfg.TwelveAPIKey,
			RequestTimeout: cfg.RequestTimeoutDuration(),
			RequestsPerSec: cfg.RequestsPerSec,
			OutputSize:     cfg.OutputSize,
			MinPoints:      minPoints,
		}), nil
	case config.ProviderAlphaVantage:
		return alphavantage.NewClient(alphavantage.ClientOptions{
			APIKey:         cfg.AlphaVantageKey,
			RequestTimeout: cfg.RequestTimeoutDuration(),
			RequestsPerSec: cfg.RequestsPerSec,
			MinPoints:      minPoints,
		}), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}
