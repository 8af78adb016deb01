package config

import (
	"flag"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultBaseURL = "https://api.clover.com"

type Config struct {
	Port           string
	BaseURL        string
	MerchantID     string
	AccessToken    string
	PollDelay      time.Duration
	PollAttempts   int
	RequestTimeout time.Duration
	LogLevel       string
}

// New loads .env (if present), then flags, then environment overrides.
func New() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := Load(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	return cfg
}

func Load(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("printcheck", flag.ContinueOnError)
	fs.StringVar(&cfg.Port, "p", "3000", "listen port")
	fs.StringVar(&cfg.BaseURL, "b", DefaultBaseURL, "platform base URL")
	fs.StringVar(&cfg.MerchantID, "m", "", "merchant id")
	fs.StringVar(&cfg.AccessToken, "t", "", "access token")
	fs.DurationVar(&cfg.PollDelay, "poll-delay", 2500*time.Millisecond, "delay before each print event status poll")
	fs.IntVar(&cfg.PollAttempts, "poll-attempts", 1, "max print event status polls")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", 30*time.Second, "platform request timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.BaseURL = getEnv("CLOVER_BASE_URL", cfg.BaseURL)
	cfg.MerchantID = getEnv("CLOVER_MERCHANT_ID", cfg.MerchantID)
	cfg.AccessToken = getEnv("CLOVER_ACCESS_TOKEN", cfg.AccessToken)
	cfg.PollDelay = getEnvDuration("PRINT_POLL_DELAY", cfg.PollDelay)
	cfg.PollAttempts = getEnvInt("PRINT_POLL_ATTEMPTS", cfg.PollAttempts)
	cfg.RequestTimeout = getEnvDuration("CLOVER_TIMEOUT", cfg.RequestTimeout)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.PollAttempts < 1 {
		cfg.PollAttempts = 1
	}

	return cfg, nil
}

// Missing lists the credential variables that are not set.
func (c *Config) Missing() []string {
	var missing []string
	if c.MerchantID == "" {
		missing = append(missing, "CLOVER_MERCHANT_ID")
	}
	if c.AccessToken == "" {
		missing = append(missing, "CLOVER_ACCESS_TOKEN")
	}
	return missing
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// bare numbers are milliseconds
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	slog.Warn("ignoring invalid duration", "key", key, "value", value)
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("ignoring invalid integer", "key", key, "value", value)
		return fallback
	}
	return n
}
