package analyze

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/market"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

// Service runs the fetch-and-evaluate pipeline for on-demand requests.
type Service struct {
	gateway market.Gateway
	params  Params
	timeout time.Duration
	logger  zerolog.Logger
}

func NewService(gateway market.Gateway, params Params) *Service {
	return &Service{
		gateway: gateway,
		params:  params,
		logger:  log.With().Str("component", "signal_engine").Logger(),
	}
}

// WithTimeout bounds each Signal call. Zero leaves the caller's context as is.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// Signal fetches the series for a pair and evaluates it. Errors match either
// market.ErrUnavailable or ErrIncompleteSnapshot.
func (s *Service) Signal(ctx context.Context, symbol model.Symbol, interval model.Interval) (Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	series, err := s.gateway.Fetch(ctx, symbol, interval)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s %s: %w", symbol, interval, err)
	}

	res, err := Analyze(series, s.params)
	if err != nil {
		return Result{}, fmt.Errorf("analyze %s %s: %w", symbol, interval, err)
	}

	s.logger.Debug().
		Str("symbol", symbol.String()).
		Str("interval", string(interval)).
		Str("signal", res.Signal.String()).
		Float64("rsi", res.Snapshot.RSI).
		Msg("Evaluated signal")
	return res, nil
}
