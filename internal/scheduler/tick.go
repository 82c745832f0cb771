package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/analyze"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/metrics"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

// TickReport summarizes one pass over all authorized users.
type TickReport struct {
	ID          string
	Users       int
	Jobs        int
	Fetches     int
	Alerts      int
	Unchanged   int
	Unavailable int
	Incomplete  int
	Failed      int // notifications the transport rejected
	Evicted     int
	Duration    time.Duration
}

type job struct {
	userID   int64
	symbol   model.Symbol
	interval model.Interval
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeAlerted
	outcomeAlertFailed
	outcomeUnavailable
	outcomeIncomplete
)

// Tick runs one evaluation pass. A failure for one (user, symbol) pair never
// stops the others.
func (s *Scheduler) Tick(ctx context.Context) TickReport {
	start := s.opts.Now()
	report := TickReport{ID: uuid.New().String()}
	logger := s.logger.With().Str("tick_id", report.ID).Logger()

	report.Evicted = s.store.Sweep(start)
	if s.metrics != nil && report.Evicted > 0 {
		s.metrics.SessionsEvicted.Add(float64(report.Evicted))
	}

	var jobs []job
	users := s.store.AuthorizedUsers()
	for _, userID := range users {
		interval, symbols, ok := s.store.Targets(userID)
		if !ok {
			continue
		}
		report.Users++
		for _, sym := range symbols {
			jobs = append(jobs, job{userID: userID, symbol: sym, interval: interval})
		}
	}
	report.Jobs = len(jobs)

	memo := newSeriesMemo()
	queue := make(chan job)
	results := make(chan outcome, len(jobs))
	var fetches int
	var fetchMu sync.Mutex

	workers := s.opts.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				results <- s.evaluate(ctx, logger, memo, j, func() {
					fetchMu.Lock()
					fetches++
					fetchMu.Unlock()
				})
			}
		}()
	}

	for _, j := range jobs {
		queue <- j
	}
	close(queue)
	wg.Wait()
	close(results)

	for o := range results {
		switch o {
		case outcomeAlerted:
			report.Alerts++
		case outcomeAlertFailed:
			report.Alerts++
			report.Failed++
		case outcomeUnavailable:
			report.Unavailable++
		case outcomeIncomplete:
			report.Incomplete++
		default:
			report.Unchanged++
		}
	}
	report.Fetches = fetches
	report.Duration = s.opts.Now().Sub(start)

	if s.metrics != nil {
		s.metrics.ObserveTick(start, report.Duration)
	}

	logger.Info().
		Int("users", report.Users).
		Int("jobs", report.Jobs).
		Int("fetches", report.Fetches).
		Int("alerts", report.Alerts).
		Int("failed", report.Failed).
		Int("unavailable", report.Unavailable).
		Int("incomplete", report.Incomplete).
		Dur("duration", report.Duration).
		Msg("Tick finished")

	return report
}

func (s *Scheduler) evaluate(ctx context.Context, logger zerolog.Logger, memo *seriesMemo, j job, onFetch func()) outcome {
	logger = logger.With().Int64("user_id", j.userID).Str("symbol", j.symbol.String()).Str("interval", string(j.interval)).Logger()

	series, loaded, err := memo.get(seriesKey{symbol: j.symbol, interval: j.interval}, func() (model.PriceSeries, error) {
		return s.fetch(ctx, j.symbol, j.interval)
	})
	if loaded {
		onFetch()
		if s.metrics != nil {
			s.metrics.FetchesTotal.Inc()
		}
	}
	if err != nil {
		if loaded {
			logger.Warn().Err(err).Msg("Market data unavailable, skipping")
		}
		s.observe(metrics.OutcomeUnavailable)
		return outcomeUnavailable
	}

	res, err := analyze.Analyze(series, s.params)
	if err != nil {
		if errors.Is(err, analyze.ErrIncompleteSnapshot) {
			logger.Debug().Err(err).Msg("Series too short for indicators")
		} else {
			logger.Warn().Err(err).Msg("Analysis failed")
		}
		s.observe(metrics.OutcomeIncomplete)
		return outcomeIncomplete
	}

	changed := s.store.RecordSignal(j.userID, j.symbol, res.Signal)
	if !changed || !res.Signal.Actionable() {
		s.observe(metrics.OutcomeUnchanged)
		return outcomeUnchanged
	}

	s.observe(metrics.OutcomeAlerted)
	text := analyze.FormatAlert(j.symbol, j.interval, res)
	sendErr := s.notifier.SendText(ctx, j.userID, text)
	if sendErr != nil {
		logger.Error().Err(sendErr).Str("signal", res.Signal.String()).Msg("Failed to deliver alert")
		if s.metrics != nil {
			s.metrics.NotificationErrors.Inc()
		}
	} else {
		logger.Info().Str("signal", res.Signal.String()).Msg("Alert sent")
		if s.metrics != nil {
			s.metrics.NotificationsSent.Inc()
		}
	}

	alert := model.Alert{
		UserID:    j.userID,
		Symbol:    j.symbol,
		Interval:  j.interval,
		Signal:    res.Signal,
		Snapshot:  res.Snapshot,
		Delivered: sendErr == nil,
		CreatedAt: s.opts.Now(),
	}
	if err := s.journal.RecordAlert(ctx, alert); err != nil {
		logger.Warn().Err(err).Msg("Failed to journal alert")
		if s.metrics != nil {
			s.metrics.JournalErrors.Inc()
		}
	}

	if sendErr != nil {
		return outcomeAlertFailed
	}
	return outcomeAlerted
}

func (s *Scheduler) observe(label string) {
	if s.metrics != nil {
		s.metrics.Evaluation(label)
	}
}
