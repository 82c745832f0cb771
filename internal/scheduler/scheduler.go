// Package scheduler runs the background alert loop: on every tick it
// evaluates each authorized user's watchlist and pushes a notification when
// a pair's signal changes to BUY or SELL.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/analyze"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/database"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/market"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/metrics"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/subscription"
)

// ErrAlreadyRunning is returned by Start on a scheduler that is running.
var ErrAlreadyRunning = errors.New("scheduler already running")

// Notifier delivers alert text to a user.
type Notifier interface {
	SendText(ctx context.Context, userID int64, text string) error
}

type State int

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Options tunes the alert loop. Zero values take the defaults.
type Options struct {
	Period       time.Duration // default 60s
	FetchTimeout time.Duration // per attempt, default 10s
	Workers      int           // default 4
	// MaxRetryTime bounds the backoff spent on one fetch; default half the period.
	MaxRetryTime time.Duration
	RetryInitial time.Duration // default 500ms
	Now          func() time.Time
}

func (o *Options) setDefaults() {
	if o.Period <= 0 {
		o.Period = time.Minute
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 10 * time.Second
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetryTime <= 0 {
		o.MaxRetryTime = o.Period / 2
	}
	if o.RetryInitial <= 0 {
		o.RetryInitial = 500 * time.Millisecond
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Scheduler owns the alert loop. It holds no lock across a tick; all
// per-user state lives in the subscription store.
type Scheduler struct {
	store    subscription.Store
	gateway  market.Gateway
	params   analyze.Params
	notifier Notifier
	journal  database.Recorder
	metrics  *metrics.Metrics
	opts     Options
	logger   zerolog.Logger

	mu     sync.Mutex
	state  State
	cron   *cron.Cron
	cancel context.CancelFunc
}

// New creates an idle scheduler. journal and m may be nil.
func New(store subscription.Store, gateway market.Gateway, params analyze.Params, notifier Notifier, journal database.Recorder, m *metrics.Metrics, opts Options) *Scheduler {
	opts.setDefaults()
	if journal == nil {
		journal = database.NewNoopRecorder()
	}
	return &Scheduler{
		store:    store,
		gateway:  gateway,
		params:   params,
		notifier: notifier,
		journal:  journal,
		metrics:  m,
		opts:     opts,
		logger:   log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start schedules a tick every Period. Ticks never overlap: a tick that is
// due while the previous one still runs is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	cl := cronLogger{logger: s.logger, onSkip: s.countSkip}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.opts.Period), func() { s.runTick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("register tick: %w", err)
	}
	c.Start()

	s.cron = c
	s.cancel = cancel
	s.state = StateRunning
	s.logger.Info().Dur("period", s.opts.Period).Int("workers", s.opts.Workers).Msg("Scheduler started")
	return nil
}

// Stop cancels the running tick and waits for it to return or for ctx to
// expire. Stopping an idle scheduler is a no-op.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil
	}
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.state = StateIdle
	s.mu.Unlock()

	cancel()
	done := c.Stop()
	select {
	case <-done.Done():
		s.logger.Info().Msg("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for tick to finish: %w", ctx.Err())
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, s.opts.Period)
	defer cancel()
	s.Tick(tickCtx)
}

func (s *Scheduler) countSkip() {
	if s.metrics != nil {
		s.metrics.SkippedTicks.Inc()
	}
}
