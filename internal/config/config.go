package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Backend names accepted by DATA_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// FileEnv names the variable pointing at an optional TOML or YAML config file.
const FileEnv = "FINANZAS_CONFIG"

type Config struct {
	// HTTP Server
	Port               string `toml:"port" yaml:"port"`
	RateLimitPerMinute int    `toml:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	MetricsEnabled     bool   `toml:"metrics_enabled" yaml:"metrics_enabled"`

	// Backend selection
	DataBackend  string `toml:"data_backend" yaml:"data_backend"`
	SQLiteDBPath string `toml:"sqlite_db_path" yaml:"sqlite_db_path"`
	PostgresURL  string `toml:"postgres_url" yaml:"postgres_url"`

	// AMQP
	AMQPURL           string `toml:"amqp_url" yaml:"amqp_url"`
	AMQPExchange      string `toml:"amqp_exchange" yaml:"amqp_exchange"`
	AMQPQueue         string `toml:"amqp_queue" yaml:"amqp_queue"`
	AMQPReminderQueue string `toml:"amqp_reminder_queue" yaml:"amqp_reminder_queue"`

	// Google Sheets mirror
	GoogleSpreadsheetID      string `toml:"google_spreadsheet_id" yaml:"google_spreadsheet_id"`
	GoogleSheetName          string `toml:"google_sheet_name" yaml:"google_sheet_name"`
	GoogleServiceAccountFile string `toml:"google_service_account_file" yaml:"google_service_account_file"`
	GoogleServiceAccountJSON string `toml:"google_service_account_json" yaml:"google_service_account_json"`
	GoogleOAuthClientFile    string `toml:"google_oauth_client_file" yaml:"google_oauth_client_file"`
	GoogleOAuthTokenFile     string `toml:"google_oauth_token_file" yaml:"google_oauth_token_file"`

	// Workers
	ReminderInterval time.Duration `toml:"reminder_interval" yaml:"reminder_interval"`

	// Dashboard cache
	DashboardCacheSize int           `toml:"dashboard_cache_size" yaml:"dashboard_cache_size"`
	DashboardCacheTTL  time.Duration `toml:"dashboard_cache_ttl" yaml:"dashboard_cache_ttl"`

	LogLevel  string `toml:"log_level" yaml:"log_level"`
	Timezone  string `toml:"timezone" yaml:"timezone"`
	ExportDir string `toml:"export_dir" yaml:"export_dir"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:               "8081",
		RateLimitPerMinute: 120,
		MetricsEnabled:     true,

		DataBackend:  BackendSQLite,
		SQLiteDBPath: "./data/finanzas.db",

		AMQPExchange:      "finanzas",
		AMQPQueue:         "finanzas_transactions",
		AMQPReminderQueue: "finanzas_payment_due",

		GoogleSheetName: "Transacciones",

		ReminderInterval: time.Hour,

		DashboardCacheSize: 256,
		DashboardCacheTTL:  5 * time.Minute,

		LogLevel:  "info",
		Timezone:  "UTC",
		ExportDir: "./exports",
	}
}

// Load builds the configuration from defaults, the optional file named by
// FINANZAS_CONFIG and the environment, later sources winning.
func Load() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv(FileEnv); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile overlays the keys present in a .toml, .yaml or .yml file onto cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse TOML config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse YAML config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q: use .toml, .yaml or .yml", ext)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)

	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.PostgresURL = getEnv("POSTGRES_URL", c.PostgresURL)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)
	c.AMQPReminderQueue = getEnv("AMQP_REMINDER_QUEUE", c.AMQPReminderQueue)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleSheetName = getEnv("GOOGLE_SHEET_NAME", c.GoogleSheetName)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)
	c.GoogleOAuthClientFile = getEnv("GOOGLE_OAUTH_CLIENT_FILE", c.GoogleOAuthClientFile)
	c.GoogleOAuthTokenFile = getEnv("GOOGLE_OAUTH_TOKEN_FILE", c.GoogleOAuthTokenFile)

	c.ReminderInterval = getEnvDuration("REMINDER_INTERVAL", c.ReminderInterval)
	c.DashboardCacheSize = getEnvInt("DASHBOARD_CACHE_SIZE", c.DashboardCacheSize)
	c.DashboardCacheTTL = getEnvDuration("DASHBOARD_CACHE_TTL", c.DashboardCacheTTL)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)
	c.ExportDir = getEnv("EXPORT_DIR", c.ExportDir)
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SheetsEnabled reports whether the spreadsheet mirror is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{BackendMemory, BackendPostgres, BackendSQLite}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == BackendPostgres {
		if c.PostgresURL == "" {
			errors = append(errors, "Postgres URL cannot be empty when using postgres backend")
		} else if parsedURL, err := url.Parse(c.PostgresURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL: %v", err))
		} else if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL scheme '%s': must be 'postgres' or 'postgresql'", parsedURL.Scheme))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPReminderQueue == "" {
			errors = append(errors, "AMQP reminder queue name cannot be empty when AMQP URL is provided")
		}
	}

	// The spreadsheet mirror is optional; once an ID is given it needs a sheet and credentials
	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasOAuth := c.GoogleOAuthClientFile != "" || c.GoogleOAuthTokenFile != ""
		switch {
		case hasOAuth:
			if c.GoogleOAuthClientFile == "" || c.GoogleOAuthTokenFile == "" {
				errors = append(errors, "GOOGLE_OAUTH_CLIENT_FILE and GOOGLE_OAUTH_TOKEN_FILE must be set together")
			}
			for _, path := range []string{c.GoogleOAuthClientFile, c.GoogleOAuthTokenFile} {
				if path == "" {
					continue
				}
				if _, err := os.Stat(path); os.IsNotExist(err) {
					errors = append(errors, fmt.Sprintf("Google OAuth file does not exist: %s", path))
				}
			}
		case !hasFile && !hasJSON:
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the spreadsheet mirror")
		case hasFile:
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.ReminderInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at least 1 minute", c.ReminderInterval))
	} else if c.ReminderInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at most 24 hours", c.ReminderInterval))
	}

	if c.DashboardCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache size %d: must be at least 1", c.DashboardCacheSize))
	}
	if c.DashboardCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache ttl %v: must be at least 1 second", c.DashboardCacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
