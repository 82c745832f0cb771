package scheduler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/cenkalti/backoff/v4"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
	httpClient "github.com/cruxifeedsy/cruxifeed-bot/internal/platform/http"
)

// fetch asks the gateway for a series, retrying transient failures with
// exponential backoff. Each attempt gets its own FetchTimeout.
func (s *Scheduler) fetch(ctx context.Context, symbol model.Symbol, interval model.Interval) (model.PriceSeries, error) {
	var series model.PriceSeries
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()

		var err error
		series, err = s.gateway.Fetch(attemptCtx, symbol, interval)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.InitialInterval = s.opts.RetryInitial
	backoffStrategy.MaxElapsedTime = s.opts.MaxRetryTime

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, err
	}
	return series, nil
}

// retryable reports whether another attempt could succeed: timeouts,
// connection failures, throttling and server errors.
func retryable(err error) bool {
	if errors.Is(err, httpClient.ErrRateLimited) {
		return true
	}
	var statusErr *httpClient.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

type seriesKey struct {
	symbol   model.Symbol
	interval model.Interval
}

type seriesEntry struct {
	once   sync.Once
	series model.PriceSeries
	err    error
}

// seriesMemo shares one fetch per (symbol, interval) within a tick.
type seriesMemo struct {
	mu      sync.Mutex
	entries map[seriesKey]*seriesEntry
}

func newSeriesMemo() *seriesMemo {
	return &seriesMemo{entries: make(map[seriesKey]*seriesEntry)}
}

// get returns the memoized result for key, calling load at most once. The
// bool reports whether this call did the load.
func (m *seriesMemo) get(key seriesKey, load func() (model.PriceSeries, error)) (model.PriceSeries, bool, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &seriesEntry{}
		m.entries[key] = e
	}
	m.mu.Unlock()

	loaded := false
	e.once.Do(func() {
		loaded = true
		e.series, e.err = load()
	})
	return e.series, loaded, e.err
}
