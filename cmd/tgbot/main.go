package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/analyze"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/api"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/command"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/config"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/database"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/market"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/metrics"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/scheduler"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/subscription"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	interval, _ := cfg.Interval()
	symbols, _ := cfg.Symbols()
	params := cfg.AnalyzeParams()

	m := metrics.New(nil)
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, m, nil)
		srv.Start()
		defer shutdown("metrics server", srv.Stop)
	}

	gateway, err := api.NewGateway(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create market data gateway")
	}
	if rdb := connectRedis(ctx, cfg); rdb != nil {
		defer rdb.Close()
		gateway = market.NewCache(gateway, rdb, 0).WithCounters(m.CacheHits, m.CacheMisses)
	}

	journal := openJournal(ctx, cfg)
	defer journal.Close()

	store := subscription.NewMemoryStore(subscription.Options{
		AccessCodes:      cfg.AccessCodes,
		DefaultWatchlist: symbols,
		DefaultInterval:  interval,
		IdleTTL:          cfg.IdleTTL(),
	})
	commands := command.NewService(store, analyze.NewService(gateway, params).WithTimeout(cfg.FetchTimeoutDuration()), cfg.AdminUsername, symbols)

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}
	log.Info().Str("username", botAPI.Self.UserName).Msg("Authorized on Telegram")
	bot := telegram.New(botAPI, commands, 0)

	sched := scheduler.New(store, gateway, params, bot, journal, m, scheduler.Options{
		Period:       cfg.TickEvery(),
		FetchTimeout: cfg.FetchTimeoutDuration(),
		Workers:      cfg.Workers,
	})
	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer shutdown("scheduler", sched.Stop)

	log.Info().
		Str("provider", cfg.Provider).
		Str("interval", string(interval)).
		Int("symbols", len(symbols)).
		Dur("tick", cfg.TickEvery()).
		Msg("Signal bot started")

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Telegram polling stopped")
	}
	log.Info().Msg("Shutdown signal received, exiting...")
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func shutdown(name string, stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		log.Warn().Err(err).Str("component", name).Msg("Shutdown incomplete")
	}
}

// connectRedis returns nil when no cache is configured or Redis is down.
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, running without series cache")
		rdb.Close()
		return nil
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("Series cache enabled")
	return rdb
}

// openJournal prefers PostgreSQL, then SQLite, and falls back to no journal.
func openJournal(ctx context.Context, cfg *config.Config) database.Recorder {
	switch {
	case cfg.DBHost != "":
		db, err := database.New(ctx, database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		return db
	case cfg.SQLitePath != "":
		rec, err := database.NewSQLiteRecorder(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open SQLite journal")
		}
		return rec
	}
	return database.NewNoopRecorder()
}
