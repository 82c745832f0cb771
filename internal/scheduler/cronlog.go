package scheduler

import (
	"github.com/rs/zerolog"
)

// cronLogger routes robfig/cron's logging through zerolog.
type cronLogger struct {
	logger zerolog.Logger
	onSkip func()
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	// SkipIfStillRunning reports a dropped tick as "skip".
	if msg == "skip" {
		if l.onSkip != nil {
			l.onSkip()
		}
		l.logger.Warn().Msg("Previous tick still running, skipping")
		return
	}
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
