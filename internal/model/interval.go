package model

import (
	"fmt"
	"strings"
	"time"
)

// Interval is the bar size a user evaluates signals on.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
)

// SupportedIntervals lists intervals in menu order.
var SupportedIntervals = []Interval{Interval1m, Interval5m, Interval15m, Interval30m}

// ParseInterval accepts both the short form ("5m") and the provider form ("5min").
func ParseInterval(s string) (Interval, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "in")
	if strings.HasSuffix(v, "m") {
		for _, iv := range SupportedIntervals {
			if string(iv) == v {
				return iv, nil
			}
		}
	}
	return "", fmt.Errorf("unsupported interval %q", s)
}

// ProviderName is the interval name used by Twelve Data and Alpha Vantage.
func (i Interval) ProviderName() string {
	return strings.TrimSuffix(string(i), "m") + "min"
}

func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval30m:
		return 30 * time.Minute
	}
	return 0
}

// Expiration is the trade expiration, in minutes, a user picked in the menu.
type Expiration int

// SupportedExpirations lists expirations in menu order.
var SupportedExpirations = []Expiration{1, 5, 15}

func (e Expiration) Valid() bool {
	for _, v := range SupportedExpirations {
		if v == e {
			return true
		}
	}
	return false
}

func (e Expiration) String() string {
	return fmt.Sprintf("%d min", int(e))
}
