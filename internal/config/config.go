package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/analyze"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

const (
	ProviderTwelveData   = "twelvedata"
	ProviderAlphaVantage = "alphavantage"
)

// Config holds all application configuration
type Config struct {
	TelegramBotToken string   `yaml:"telegram_bot_token"`
	AdminUsername    string   `yaml:"admin_username"`
	AccessCodes      []string `yaml:"access_codes"`

	Provider        string `yaml:"provider"`
	TwelveAPIKey    string `yaml:"twelve_api_key"`
	AlphaVantageKey string `yaml:"alpha_vantage_key"`
	OutputSize      int    `yaml:"output_size"`
	RequestTimeout  int    `yaml:"request_timeout"` // seconds
	RequestsPerSec  int    `yaml:"requests_per_sec"`

	DefaultSymbols  []string `yaml:"default_symbols"`
	DefaultInterval string   `yaml:"default_interval"`

	TickPeriod     int `yaml:"tick_period"`   // seconds
	FetchTimeout   int `yaml:"fetch_timeout"` // seconds
	Workers        int `yaml:"workers"`
	SessionIdleTTL int `yaml:"session_idle_ttl"` // hours

	RSIPeriod        int `yaml:"rsi_period"`
	MAPeriod         int `yaml:"ma_period"`
	MACDFastPeriod   int `yaml:"macd_fast_period"`
	MACDSlowPeriod   int `yaml:"macd_slow_period"`
	MACDSignalPeriod int `yaml:"macd_signal_period"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`
	SQLitePath string `yaml:"sqlite_path"`

	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Defaults returns the configuration used when neither the file nor the
// environment set a value.
func Defaults() Config {
	p := analyze.DefaultParams()
	return Config{
		Provider:         ProviderTwelveData,
		OutputSize:       100,
		RequestTimeout:   30,
		RequestsPerSec:   5,
		DefaultSymbols:   []string{"EURUSD", "GBPUSD", "USDJPY", "USDCAD"},
		DefaultInterval:  string(model.Interval5m),
		TickPeriod:       60,
		FetchTimeout:     10,
		Workers:          4,
		SessionIdleTTL:   24,
		RSIPeriod:        p.RSIPeriod,
		MAPeriod:         p.MAPeriod,
		MACDFastPeriod:   p.MACDFastPeriod,
		MACDSlowPeriod:   p.MACDSlowPeriod,
		MACDSignalPeriod: p.MACDSignalPeriod,
		DBPort:           "5432",
		DBSSLMode:        "disable",
		LogLevel:         "info",
	}
}

// Load initializes configuration from .env, an optional YAML file named by
// CONFIG_FILE, and finally the process environment.
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.TelegramBotToken = getEnvWithDefault("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	cfg.AdminUsername = getEnvWithDefault("ADMIN_USERNAME", cfg.AdminUsername)
	cfg.AccessCodes = getEnvListWithDefault("ACCESS_CODES", cfg.AccessCodes)

	cfg.Provider = strings.ToLower(getEnvWithDefault("PROVIDER", cfg.Provider))
	cfg.TwelveAPIKey = getEnvWithDefault("TWELVE_API_KEY", cfg.TwelveAPIKey)
	cfg.AlphaVantageKey = getEnvWithDefault("ALPHA_VANTAGE_KEY", cfg.AlphaVantageKey)
	cfg.OutputSize = getEnvIntWithDefault("OUTPUT_SIZE", cfg.OutputSize)
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", cfg.RequestsPerSec)

	cfg.DefaultSymbols = getEnvListWithDefault("DEFAULT_SYMBOLS", cfg.DefaultSymbols)
	cfg.DefaultInterval = getEnvWithDefault("DEFAULT_INTERVAL", cfg.DefaultInterval)

	cfg.TickPeriod = getEnvIntWithDefault("TICK_PERIOD", cfg.TickPeriod)
	cfg.FetchTimeout = getEnvIntWithDefault("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.Workers = getEnvIntWithDefault("WORKERS", cfg.Workers)
	cfg.SessionIdleTTL = getEnvIntWithDefault("SESSION_IDLE_TTL", cfg.SessionIdleTTL)

	cfg.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", cfg.RSIPeriod)
	cfg.MAPeriod = getEnvIntWithDefault("MA_PERIOD", cfg.MAPeriod)
	cfg.MACDFastPeriod = getEnvIntWithDefault("MACD_FAST_PERIOD", cfg.MACDFastPeriod)
	cfg.MACDSlowPeriod = getEnvIntWithDefault("MACD_SLOW_PERIOD", cfg.MACDSlowPeriod)
	cfg.MACDSignalPeriod = getEnvIntWithDefault("MACD_SIGNAL_PERIOD", cfg.MACDSignalPeriod)

	cfg.RedisAddr = getEnvWithDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnvWithDefault("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvIntWithDefault("REDIS_DB", cfg.RedisDB)

	cfg.DBHost = getEnvWithDefault("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnvWithDefault("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnvWithDefault("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnvWithDefault("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnvWithDefault("DB_NAME", cfg.DBName)
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", cfg.DBSSLMode)
	cfg.SQLitePath = getEnvWithDefault("SQLITE_PATH", cfg.SQLitePath)

	cfg.MetricsAddr = getEnvWithDefault("METRICS_ADDR", cfg.MetricsAddr)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", cfg.LogLevel)
}

// Validate checks that the bot can start with this configuration.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if len(c.AccessCodes) == 0 {
		return fmt.Errorf("ACCESS_CODES must list at least one code")
	}
	switch c.Provider {
	case ProviderTwelveData:
		if c.TwelveAPIKey == "" {
			return fmt.Errorf("TWELVE_API_KEY is required for provider %s", c.Provider)
		}
	case ProviderAlphaVantage:
		if c.AlphaVantageKey == "" {
			return fmt.Errorf("ALPHA_VANTAGE_KEY is required for provider %s", c.Provider)
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if _, err := c.Interval(); err != nil {
		return err
	}
	if _, err := c.Symbols(); err != nil {
		return err
	}
	if err := c.AnalyzeParams().Validate(); err != nil {
		return err
	}
	if c.TickPeriod <= 0 || c.FetchTimeout <= 0 || c.Workers <= 0 {
		return fmt.Errorf("TICK_PERIOD, FETCH_TIMEOUT and WORKERS must be positive")
	}
	return nil
}

func (c *Config) AnalyzeParams() analyze.Params {
	return analyze.Params{
		RSIPeriod:        c.RSIPeriod,
		MAPeriod:         c.MAPeriod,
		MACDFastPeriod:   c.MACDFastPeriod,
		MACDSlowPeriod:   c.MACDSlowPeriod,
		MACDSignalPeriod: c.MACDSignalPeriod,
	}
}

func (c *Config) Interval() (model.Interval, error) {
	return model.ParseInterval(c.DefaultInterval)
}

func (c *Config) Symbols() ([]model.Symbol, error) {
	return model.ParseSymbols(strings.Join(c.DefaultSymbols, ","))
}

func (c *Config) TickEvery() time.Duration {
	return time.Duration(c.TickPeriod) * time.Second
}

func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func (c *Config) IdleTTL() time.Duration {
	return time.Duration(c.SessionIdleTTL) * time.Hour
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-integer environment value")
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
