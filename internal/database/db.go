package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

// DB is the PostgreSQL alert journal
type DB struct {
	*sqlx.DB
}

var _ Recorder = (*DB)(nil)

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (p ConnectionParams) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// alertRow is the column mapping of signal_alerts.
type alertRow struct {
	UserID     int64     `db:"user_id"`
	Symbol     string    `db:"symbol"`
	Timeframe  string    `db:"timeframe"`
	Signal     string    `db:"signal"`
	RSI        float64   `db:"rsi"`
	MA         float64   `db:"ma"`
	MACD       float64   `db:"macd"`
	MACDSignal float64   `db:"macd_signal"`
	Price      float64   `db:"price"`
	Delivered  bool      `db:"delivered"`
	CreatedAt  time.Time `db:"created_at"`
}

func newAlertRow(a model.Alert) alertRow {
	return alertRow{
		UserID:     a.UserID,
		Symbol:     a.Symbol.String(),
		Timeframe:  string(a.Interval),
		Signal:     a.Signal.String(),
		RSI:        a.Snapshot.RSI,
		MA:         a.Snapshot.MovingAverage,
		MACD:       a.Snapshot.MACD,
		MACDSignal: a.Snapshot.MACDSignal,
		Price:      a.Snapshot.Price,
		Delivered:  a.Delivered,
		CreatedAt:  a.CreatedAt,
	}
}

// New connects to PostgreSQL and creates the journal table. The caller
// registers the "postgres" driver.
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	db, err := sqlx.Open("postgres", params.dsn())
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &DB{db}, nil
}

func createTables(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS signal_alerts (
			id          BIGSERIAL PRIMARY KEY,
			user_id     BIGINT NOT NULL,
			symbol      TEXT NOT NULL,
			timeframe   TEXT NOT NULL,
			signal      TEXT NOT NULL,
			rsi         DOUBLE PRECISION,
			ma          DOUBLE PRECISION,
			macd        DOUBLE PRECISION,
			macd_signal DOUBLE PRECISION,
			price       DOUBLE PRECISION,
			delivered   BOOLEAN NOT NULL,
			created_at  TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_signal_alerts_user ON signal_alerts (user_id, created_at)
	`)
	return err
}

const insertAlert = `
	INSERT INTO signal_alerts (
		user_id, symbol, timeframe, signal, rsi, ma, macd, macd_signal, price, delivered, created_at
	) VALUES (
		:user_id, :symbol, :timeframe, :signal, :rsi, :ma, :macd, :macd_signal, :price, :delivered, :created_at
	)`

// RecordAlert appends one alert row
func (db *DB) RecordAlert(ctx context.Context, a model.Alert) error {
	_, err := sqlx.NamedExecContext(ctx, db.DB, insertAlert, newAlertRow(a))
	return err
}
