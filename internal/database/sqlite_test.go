package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

func TestSQLiteRecorderRecordAlert(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder() error = %v", err)
	}
	defer r.Close()

	alert := model.Alert{
		UserID:   42,
		Symbol:   model.Symbol{Base: "EUR", Quote: "USD"},
		Interval: model.Interval5m,
		Signal:   model.SignalBuy,
		Snapshot: model.IndicatorSnapshot{
			RSI: 20, MovingAverage: 1.1088, MACD: 0.0032, MACDSignal: 0.0029, Price: 1.109,
		},
		Delivered: true,
		CreatedAt: time.Unix(1760000000, 0),
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := r.RecordAlert(ctx, alert); err != nil {
			t.Fatalf("RecordAlert() error = %v", err)
		}
	}

	var (
		count  int
		symbol string
		signal string
		ts     int64
		price  float64
	)
	row := r.db.QueryRow(`SELECT COUNT(*), MAX(symbol), MAX(signal), MAX(timestamp), MAX(price) FROM signal_alerts WHERE user_id = ?`, 42)
	if err := row.Scan(&count, &symbol, &signal, &ts, &price); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 2 || symbol != "EURUSD" || signal != "BUY" || ts != 1760000000 || price != 1.109 {
		t.Errorf("row = %d %s %s %d %v", count, symbol, signal, ts, price)
	}
}

func TestSQLiteRecorderReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 2; i++ {
		r, err := NewSQLiteRecorder(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		if err := r.Close(); err != nil {
			t.Fatalf("close #%d: %v", i, err)
		}
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordAlert(context.Background(), model.Alert{}); err != nil {
		t.Errorf("RecordAlert() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestConnectionParamsDSN(t *testing.T) {
	p := ConnectionParams{Host: "db", Port: "5432", User: "bot", Password: "pw", DBName: "alerts", SSLMode: "disable"}
	want := "host=db port=5432 user=bot password=pw dbname=alerts sslmode=disable"
	if got := p.dsn(); got != want {
		t.Errorf("dsn() = %q, want %q", got, want)
	}
}

func TestInsertAlertBindsEveryColumn(t *testing.T) {
	query, args, err := sqlx.Named(insertAlert, newAlertRow(model.Alert{
		UserID:   1,
		Symbol:   model.Symbol{Base: "GBP", Quote: "USD"},
		Interval: model.Interval1m,
		Signal:   model.SignalSell,
	}))
	if err != nil {
		t.Fatalf("sqlx.Named() error = %v", err)
	}
	if len(args) != 11 {
		t.Errorf("bound %d args, want 11", len(args))
	}
	if args[1] != "GBPUSD" || args[2] != "1m" || args[3] != "SELL" {
		t.Errorf("args = %v", args[:4])
	}
	if strings.Contains(query, ":") {
		t.Errorf("query still has named parameters: %s", query)
	}
}
