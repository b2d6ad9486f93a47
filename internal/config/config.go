// Package config loads runtime settings for the budget-insights binaries.
//
// Values are layered: built-in defaults, then an optional TOML file named by
// BUDGET_CONFIG_FILE, then environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/dvloznov/budget-insights/internal/schedule"
)

// FileEnv names the environment variable pointing at an optional TOML file.
const FileEnv = "BUDGET_CONFIG_FILE"

// Data backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendBigQuery = "bigquery"
)

// Notification backends.
const (
	NotifyLog  = "log"
	NotifyAMQP = "amqp"
)

// Config holds all settings shared by cmd/api, cmd/worker and cmd/cli.
type Config struct {
	// Server
	Port      int    `toml:"port"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Storage
	DataBackend     string `toml:"data_backend"`
	SQLiteDBPath    string `toml:"sqlite_db_path"`
	BigQueryProject string `toml:"bigquery_project"`
	BigQueryDataset string `toml:"bigquery_dataset"`

	// Text generation
	GeminiAPIKey string `toml:"gemini_api_key"`
	GeminiModel  string `toml:"gemini_model"`

	// Messaging
	NotifyBackend   string `toml:"notify_backend"`
	AMQPURL         string `toml:"amqp_url"`
	AMQPExchange    string `toml:"amqp_exchange"`
	AMQPNotifyQueue string `toml:"amqp_notify_queue"`
	AMQPEventsQueue string `toml:"amqp_events_queue"`

	// Optional sinks
	ArchiveBucket      string `toml:"archive_bucket"`
	NotionToken        string `toml:"notion_token"`
	NotionInsightsDBID string `toml:"notion_insights_db_id"`

	// Scheduling
	DailySchedule    string        `toml:"daily_schedule"`
	WeeklySchedule   string        `toml:"weekly_schedule"`
	Timezone         string        `toml:"timezone"`
	CallTimeout      time.Duration `toml:"call_timeout"`
	BatchConcurrency int           `toml:"batch_concurrency"`

	// Job queue
	QueueWorkers int `toml:"queue_workers"`
	QueueBuffer  int `toml:"queue_buffer"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Port:             8080,
		LogLevel:         "info",
		LogFormat:        "console",
		DataBackend:      BackendMemory,
		SQLiteDBPath:     "./data/budget.db",
		BigQueryDataset:  "budget",
		GeminiModel:      "gemini-2.5-flash",
		NotifyBackend:    NotifyLog,
		AMQPExchange:     "budget",
		AMQPNotifyQueue:  "push_notifications",
		AMQPEventsQueue:  "transaction_events",
		DailySchedule:    "0 9 * * *",
		WeeklySchedule:   "0 8 * * 1",
		Timezone:         "UTC",
		CallTimeout:      30 * time.Second,
		BatchConcurrency: 1,
		QueueWorkers:     5,
		QueueBuffer:      100,
	}
}

// Load builds a Config from defaults, the optional TOML file and the environment.
// It does not validate; call Validate before using the result.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("Load: reading config file %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), c); err != nil {
		return fmt.Errorf("Load: parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvInt("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.DataBackend = strings.ToLower(getEnv("DATA_BACKEND", c.DataBackend))
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.BigQueryProject = getEnv("BQ_PROJECT_ID", c.BigQueryProject)
	c.BigQueryDataset = getEnv("BQ_DATASET", c.BigQueryDataset)

	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)

	c.NotifyBackend = strings.ToLower(getEnv("NOTIFY_BACKEND", c.NotifyBackend))
	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPNotifyQueue = getEnv("AMQP_NOTIFY_QUEUE", c.AMQPNotifyQueue)
	c.AMQPEventsQueue = getEnv("AMQP_EVENTS_QUEUE", c.AMQPEventsQueue)

	c.ArchiveBucket = getEnv("ARCHIVE_BUCKET", c.ArchiveBucket)
	c.NotionToken = getEnv("NOTION_TOKEN", c.NotionToken)
	c.NotionInsightsDBID = getEnv("NOTION_INSIGHTS_DB_ID", c.NotionInsightsDBID)

	c.DailySchedule = getEnv("DAILY_SCHEDULE", c.DailySchedule)
	c.WeeklySchedule = getEnv("WEEKLY_SCHEDULE", c.WeeklySchedule)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)
	c.CallTimeout = getEnvDuration("CALL_TIMEOUT", c.CallTimeout)
	c.BatchConcurrency = getEnvInt("BATCH_CONCURRENCY", c.BatchConcurrency)

	c.QueueWorkers = getEnvInt("QUEUE_WORKERS", c.QueueWorkers)
	c.QueueBuffer = getEnvInt("QUEUE_BUFFER", c.QueueBuffer)
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if c.Port <= 0 || c.Port > 65535 {
		errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL %q is not a valid level", c.LogLevel))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be 'console' or 'json', got %q", c.LogFormat))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLITE_DB_PATH is required when DATA_BACKEND=sqlite")
		}
	case BackendBigQuery:
		if c.BigQueryProject == "" {
			errors = append(errors, "BQ_PROJECT_ID is required when DATA_BACKEND=bigquery")
		}
		if c.BigQueryDataset == "" {
			errors = append(errors, "BQ_DATASET is required when DATA_BACKEND=bigquery")
		}
	default:
		errors = append(errors, fmt.Sprintf("DATA_BACKEND must be one of memory, sqlite, bigquery, got %q", c.DataBackend))
	}

	switch c.NotifyBackend {
	case NotifyLog:
	case NotifyAMQP:
		if c.AMQPURL == "" {
			errors = append(errors, "AMQP_URL is required when NOTIFY_BACKEND=amqp")
		} else if u, err := url.Parse(c.AMQPURL); err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") {
			errors = append(errors, fmt.Sprintf("AMQP_URL must use the amqp or amqps scheme, got %q", c.AMQPURL))
		}
		if c.AMQPNotifyQueue == "" {
			errors = append(errors, "AMQP_NOTIFY_QUEUE cannot be empty")
		}
	default:
		errors = append(errors, fmt.Sprintf("NOTIFY_BACKEND must be 'log' or 'amqp', got %q", c.NotifyBackend))
	}

	if (c.NotionToken == "") != (c.NotionInsightsDBID == "") {
		errors = append(errors, "NOTION_TOKEN and NOTION_INSIGHTS_DB_ID must be set together")
	}

	if err := schedule.Validate(c.DailySchedule); err != nil {
		errors = append(errors, fmt.Sprintf("DAILY_SCHEDULE: %v", err))
	}
	if err := schedule.Validate(c.WeeklySchedule); err != nil {
		errors = append(errors, fmt.Sprintf("WEEKLY_SCHEDULE: %v", err))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("TIMEZONE %q is not a known location", c.Timezone))
	}

	if c.CallTimeout < time.Second {
		errors = append(errors, "CALL_TIMEOUT must be at least 1s")
	}
	if c.BatchConcurrency < 1 {
		errors = append(errors, "BATCH_CONCURRENCY must be at least 1")
	}
	if c.QueueWorkers < 1 {
		errors = append(errors, "QUEUE_WORKERS must be at least 1")
	}
	if c.QueueBuffer < 1 {
		errors = append(errors, "QUEUE_BUFFER must be at least 1")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// GenerationEnabled reports whether a text generation key is configured.
func (c *Config) GenerationEnabled() bool {
	return c.GeminiAPIKey != ""
}

// NotionEnabled reports whether insights should be exported to Notion.
func (c *Config) NotionEnabled() bool {
	return c.NotionToken != "" && c.NotionInsightsDBID != ""
}

// Location returns the configured scheduling time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
