package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultBaseURL = "https://testnet.binancefuture.com"

// Config holds environment-driven settings for the order submission CLI.
type Config struct {
	// Binance
	APIKey    string
	APISecret string
	BaseURL   string

	// Submission behavior
	Timeout    time.Duration // per-attempt HTTP timeout
	MaxRetries int           // retries after the first attempt
	Backoff    time.Duration // base retry wait, doubled per retry
	RecvWindow int64         // ms
	TimeSync   bool          // sync with the venue clock before submitting

	// Logging
	LogFile  string
	LogLevel string

	// Order journal
	JournalPath string
}

// Load reads environment variables (optionally via .env) into Config.
// envFile, when non-empty, names an env file that must exist; otherwise a
// ./.env is loaded when present and skipped when not.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		// Ignore error so the CLI still runs when .env is missing.
		_ = godotenv.Load()
	}

	timeoutSec, err := getEnvFloat("BINANCE_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	backoffSec, err := getEnvFloat("BINANCE_BACKOFF_SECONDS", 1)
	if err != nil {
		return nil, err
	}
	maxRetries, err := getEnvInt("BINANCE_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	recvWindow, err := getEnvInt("BINANCE_RECV_WINDOW", 5000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIKey:      os.Getenv("BINANCE_API_KEY"),
		APISecret:   os.Getenv("BINANCE_API_SECRET"),
		BaseURL:     strings.TrimRight(getEnv("BINANCE_BASE_URL", defaultBaseURL), "/"),
		Timeout:     time.Duration(timeoutSec * float64(time.Second)),
		MaxRetries:  maxRetries,
		Backoff:     time.Duration(backoffSec * float64(time.Second)),
		RecvWindow:  int64(recvWindow),
		TimeSync:    getEnv("BINANCE_TIME_SYNC", "false") == "true",
		LogFile:     getEnv("LOG_FILE", "logs/futures-trader.log"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		JournalPath: getEnv("JOURNAL_DB_PATH", "./data/orders.db"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return errors.New("BINANCE_API_KEY is required")
	}
	if c.APISecret == "" {
		return errors.New("BINANCE_API_SECRET is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BINANCE_BASE_URL %q is not a valid URL", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return errors.New("BINANCE_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.Backoff <= 0 {
		return errors.New("BINANCE_BACKOFF_SECONDS must be greater than 0")
	}
	if c.MaxRetries < 0 {
		return errors.New("BINANCE_MAX_RETRIES must be 0 or greater")
	}
	if c.RecvWindow <= 0 {
		return errors.New("BINANCE_RECV_WINDOW must be greater than 0")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value for %s: %q", key, v)
	}
	return f, nil
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %q", key, v)
	}
	return i, nil
}
