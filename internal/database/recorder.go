package database

import (
	"context"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

// Recorder appends dispatched alerts to an audit journal. The journal is
// write-only from the bot's point of view; session state never reads it back.
type Recorder interface {
	RecordAlert(ctx context.Context, alert model.Alert) error
	Close() error
}

// NoopRecorder is used when no journal database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) RecordAlert(context.Context, model.Alert) error { return nil }
func (NoopRecorder) Close() error                                     { return nil }
