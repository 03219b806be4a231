// Package config reads the daemon configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"

	sheetqueue "github.com/ideamans/go-sheetqueue"
)

// Config is the daemon configuration
type Config struct {
	Addr       string `validate:"required"`
	Store      string `validate:"oneof=file sqlite memory"`
	DataDir    string `validate:"required_unless=Store memory"`
	StorageKey string `validate:"required"`

	Appender        string `validate:"oneof=appsscript sheets excel sqs"`
	AppsScriptURL   string `validate:"required_if=Appender appsscript,omitempty,url"`
	SpreadsheetID   string `validate:"required_if=Appender sheets"`
	CredentialsFile string
	ExcelFilePath   string `validate:"required_if=Appender excel"`
	SQSQueueURL     string `validate:"required_if=Appender sqs,omitempty,url"`

	AutoSyncDelay time.Duration
	AppendTimeout time.Duration `validate:"gte=0"`
	ProbeURL      string        `validate:"omitempty,url"`
	ProbeInterval time.Duration `validate:"gte=0"`
	StartOnline   bool

	LogLevel string `validate:"oneof=debug info warn error"`
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Addr:            getenv("SHEETQUEUE_ADDR", ":8080"),
		Store:           strings.ToLower(getenv("SHEETQUEUE_STORE", "file")),
		DataDir:         getenv("SHEETQUEUE_DATA_DIR", "data"),
		StorageKey:      getenv("SHEETQUEUE_STORAGE_KEY", sheetqueue.DefaultStorageKey),
		Appender:        strings.ToLower(getenv("SHEETQUEUE_APPENDER", "appsscript")),
		AppsScriptURL:   os.Getenv("APPS_SCRIPT_URL"),
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		ExcelFilePath:   os.Getenv("EXCEL_FILE_PATH"),
		SQSQueueURL:     os.Getenv("SQS_QUEUE_URL"),
		ProbeURL:        os.Getenv("SHEETQUEUE_PROBE_URL"),
		LogLevel:        strings.ToLower(getenv("LOG_LEVEL", "info")),
	}

	var errs []error
	var err error
	if cfg.AutoSyncDelay, err = durationEnv("SHEETQUEUE_AUTO_SYNC_DELAY", 2*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.AppendTimeout, err = durationEnv("SHEETQUEUE_APPEND_TIMEOUT", 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.ProbeInterval, err = durationEnv("SHEETQUEUE_PROBE_INTERVAL", 30*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.StartOnline, err = boolEnv("SHEETQUEUE_START_ONLINE", true); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := validatorv10.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SQLitePath returns the database file under DataDir
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "sheetqueue.db")
}

// SlogLevel maps LogLevel to a slog level
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// QueueConfig builds the library configuration
func (c *Config) QueueConfig(logger *slog.Logger) *sheetqueue.Config {
	return &sheetqueue.Config{
		StorageKey:    c.StorageKey,
		AutoSyncDelay: c.AutoSyncDelay,
		AppendTimeout: c.AppendTimeout,
		Logger:        logger,
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
