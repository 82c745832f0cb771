package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

// SQLiteRecorder keeps the alert journal in a local SQLite file.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Recorder = (*SQLiteRecorder)(nil)

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("component", "alert_journal").Str("path", dbPath).Msg("SQLite journal opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_alerts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			user_id     INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			timeframe   TEXT NOT NULL,
			signal      TEXT NOT NULL,
			rsi         REAL,
			ma          REAL,
			macd        REAL,
			macd_signal REAL,
			price       REAL,
			delivered   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_alerts_user ON signal_alerts(user_id, timestamp)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAlert(ctx context.Context, a model.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := a.Snapshot
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO signal_alerts (timestamp, user_id, symbol, timeframe, signal, rsi, ma, macd, macd_signal, price, delivered)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.CreatedAt.Unix(), a.UserID, a.Symbol.String(), string(a.Interval), a.Signal.String(),
		s.RSI, s.MovingAverage, s.MACD, s.MACDSignal, s.Price, a.Delivered,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
