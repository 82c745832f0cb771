// Package market defines the price-data contract shared by the signal engine
// and the alert scheduler, independent of which provider serves it.
package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

// ErrUnavailable is returned (wrapped) for every failure a caller can only
// react to by skipping the evaluation: network errors, bad payloads, empty or
// short series, provider "no data" answers.
var ErrUnavailable = errors.New("market data unavailable")

// Gateway fetches a chronological closing-price series for a pair.
// Implementations do not retry.
type Gateway interface {
	Fetch(ctx context.Context, symbol model.Symbol, interval model.Interval) (model.PriceSeries, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, symbol model.Symbol, interval model.Interval) (model.PriceSeries, error)

func (f GatewayFunc) Fetch(ctx context.Context, symbol model.Symbol, interval model.Interval) (model.PriceSeries, error) {
	return f(ctx, symbol, interval)
}

// UnavailableError carries the reason a series could not be produced.
type UnavailableError struct {
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrUnavailable, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrUnavailable, e.Reason)
}

func (e *UnavailableError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUnavailable, e.Err}
	}
	return []error{ErrUnavailable}
}

// Unavailable builds an error that matches ErrUnavailable.
func Unavailable(reason string, cause error) error {
	return &UnavailableError{Reason: reason, Err: cause}
}

// IsUnavailable reports whether err means "no usable data right now".
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
