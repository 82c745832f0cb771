package model

import "time"

// UserSession is a point-in-time copy of a user's subscription state.
type UserSession struct {
	UserID       int64
	Authorized   bool
	Watchlist    []Symbol
	Timeframe    Interval
	Expiration   Expiration
	LastSignal   map[Symbol]Signal
	LastActivity time.Time
}

// Alert is one dispatched notification, as recorded in the alert journal.
type Alert struct {
	UserID    int64
	Symbol    Symbol
	Interval  Interval
	Signal    Signal
	Snapshot  IndicatorSnapshot
	Delivered bool
	CreatedAt time.Time
}
