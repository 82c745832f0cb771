// Package subscription keeps per-user session state: authorization, the
// watchlist, timeframe preferences and the last evaluated signal per pair.
package subscription

import (
	"errors"
	"time"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

var (
	// ErrUnauthorized is returned for gated operations on a session that has
	// not entered a valid access code.
	ErrUnauthorized = errors.New("user is not authorized")
	// ErrInvalidCode is returned when an access code is rejected.
	ErrInvalidCode = errors.New("invalid access code")
)

// Store is the process-wide subscription state. Every method is atomic with
// respect to a single user's session.
type Store interface {
	Touch(userID int64)
	Authorize(userID int64, code string) bool
	IsAuthorized(userID int64) bool

	AddSymbol(userID int64, symbol model.Symbol) error
	RemoveSymbol(userID int64, symbol model.Symbol) error
	ToggleSymbol(userID int64, symbol model.Symbol) (bool, error)
	SetTimeframe(userID int64, interval model.Interval) error
	SetExpiration(userID int64, expiration model.Expiration) error

	RecordSignal(userID int64, symbol model.Symbol, signal model.Signal) bool

	AuthorizedUsers() []int64
	Targets(userID int64) (model.Interval, []model.Symbol, bool)
	Session(userID int64) (model.UserSession, bool)
	Sweep(now time.Time) int
}
