package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/analyze"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/api"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/config"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

// analyzer evaluates pairs once and prints the signal, using the same
// configuration and provider as the bot.
func main() {
	symbolsFlag := flag.String("symbols", "", "comma separated pairs, default DEFAULT_SYMBOLS")
	intervalFlag := flag.String("interval", "", "bar interval (1m, 5m, 15m, 30m), default DEFAULT_INTERVAL")
	expirationFlag := flag.Int("expiration", 5, "expiration in minutes shown in the output")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.LogLevel)

	if *symbolsFlag != "" {
		cfg.DefaultSymbols = []string{*symbolsFlag}
	}
	if *intervalFlag != "" {
		cfg.DefaultInterval = *intervalFlag
	}

	symbols, err := cfg.Symbols()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid symbols")
	}
	interval, err := cfg.Interval()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid interval")
	}
	params := cfg.AnalyzeParams()
	if err := params.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid indicator periods")
	}

	gateway, err := api.NewGateway(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create market data gateway")
	}
	engine := analyze.NewService(gateway, params)

	failed := 0
	for _, sym := range symbols {
		res, err := engine.Signal(ctx, sym, interval)
		if err != nil {
			log.Error().Err(err).Str("symbol", sym.String()).Msg("Analysis failed")
			failed++
			continue
		}
		fmt.Println(analyze.FormatSignal(sym, interval, model.Expiration(*expirationFlag), res))
	}
	if failed == len(symbols) {
		os.Exit(1)
	}
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
