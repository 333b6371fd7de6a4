package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port                  string
	RequestTimeout        time.Duration
	ChatRequestsPerMinute int

	// Logging
	LogLevel string

	// Data
	DataBackend   string
	RetailDBPath  string
	RetailCSVPath string

	// AMQP query audit; disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Gemini; /chat is disabled when GeminiAPIKey is empty
	GeminiAPIKey        string
	GeminiModelIntent   string
	GeminiModelResponse string
	GeminiEndpoint      string

	// Google Sheets ingestion
	GoogleSpreadsheetID string
	GoogleSheetRange    string

	// Loader
	LoadBatchSize int
}

func Load() *Config {
	return &Config{
		Port:                  getEnv("PORT", "8080"),
		RequestTimeout:        getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ChatRequestsPerMinute: getEnvInt("CHAT_REQUESTS_PER_MINUTE", 30),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:   getEnv("DATA_BACKEND", BackendSQLite),
		RetailDBPath:  getEnv("RETAIL_DB_PATH", "./data/retail.db"),
		RetailCSVPath: getEnv("RETAIL_CSV_PATH", "./data/Retail_Transaction_Dataset.csv"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "insights"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "query_audit"),

		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModelIntent:   getEnv("GEMINI_MODEL_INTENT", "gemini-2.5-flash"),
		GeminiModelResponse: getEnv("GEMINI_MODEL_RESPONSE", "gemini-2.5-flash"),
		GeminiEndpoint:      getEnv("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetRange:    getEnv("GOOGLE_SHEET_RANGE", "Transactions!A:J"),

		LoadBatchSize: getEnvInt("LOAD_BATCH_SIZE", 2000),
	}
}

// AuditEnabled reports whether query audit events should be published.
func (c *Config) AuditEnabled() bool {
	return c.AMQPURL != ""
}

// ChatEnabled reports whether the language collaborators are configured.
func (c *Config) ChatEnabled() bool {
	return c.GeminiAPIKey != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RequestTimeout < time.Second || c.RequestTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be between 1s and 5m", c.RequestTimeout))
	}
	if c.ChatRequestsPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid chat rate %d: must be at least 1 request per minute", c.ChatRequestsPerMinute))
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.RetailDBPath == "" {
			errors = append(errors, "database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.RetailDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
			}
		}
	case BackendMemory:
		if c.RetailCSVPath == "" {
			errors = append(errors, "CSV path cannot be empty when using memory backend")
		} else if _, err := os.Stat(c.RetailCSVPath); err != nil {
			errors = append(errors, fmt.Sprintf("CSV file not readable at '%s': %v", c.RetailCSVPath, err))
		}
	}

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
	}

	if c.GeminiAPIKey != "" {
		if c.GeminiModelIntent == "" || c.GeminiModelResponse == "" {
			errors = append(errors, "Gemini model names cannot be empty when GEMINI_API_KEY is set")
		}
		if u, err := url.Parse(c.GeminiEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid Gemini endpoint '%s'", c.GeminiEndpoint))
		}
	}

	if c.LoadBatchSize < 1 || c.LoadBatchSize > 50000 {
		errors = append(errors, fmt.Sprintf("invalid load batch size %d: must be between 1 and 50000", c.LoadBatchSize))
	}

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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
