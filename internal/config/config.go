package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Category engine
	DefaultCategories  []string
	DefaultMonthlyGoal string

	// Reports use this timezone to decide where "the current month" starts.
	ReportTimezone string

	// AMQP (ledger mirror feed)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror (worker)
	SheetsSpreadsheetID   string
	SheetsSheetName       string
	SheetsCredentialsFile string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finanzas.db"),

		DefaultCategories:  getEnvList("DEFAULT_CATEGORIES", []string{"Transporte", "Comida", "Entretenimiento", "Servicios", "Renta"}),
		DefaultMonthlyGoal: getEnv("DEFAULT_MONTHLY_GOAL", "500.0"),

		ReportTimezone: getEnv("REPORT_TIMEZONE", "America/Mexico_City"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finanzas"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "mirror_transactions"),

		SheetsSpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsSheetName:       getEnv("SHEETS_SHEET_NAME", "Movimientos"),
		SheetsCredentialsFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if len(c.DefaultCategories) == 0 {
		errors = append(errors, "default category set cannot be empty")
	}
	seen := make(map[string]bool, len(c.DefaultCategories))
	for _, name := range c.DefaultCategories {
		normalized := core.NormalizeCategory(name)
		if normalized == "" {
			errors = append(errors, "default category names cannot be blank")
			continue
		}
		if seen[normalized] {
			errors = append(errors, fmt.Sprintf("duplicate default category '%s'", normalized))
		}
		seen[normalized] = true
	}

	if _, err := decimal.NewFromString(c.DefaultMonthlyGoal); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default monthly goal '%s': must be a decimal number", c.DefaultMonthlyGoal))
	}

	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid report timezone '%s': %v", c.ReportTimezone, err))
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

	if c.SheetsSpreadsheetID != "" {
		if c.SheetsSheetName == "" {
			errors = append(errors, "sheet name is required when a spreadsheet ID is provided")
		}
		if c.SheetsCredentialsFile == "" {
			errors = append(errors, "SHEETS_CREDENTIALS_FILE is required when a spreadsheet ID is provided")
		} else if _, err := os.Stat(c.SheetsCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Sheets credentials file does not exist: %s", c.SheetsCredentialsFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// NormalizedDefaults returns the default category set with every name
// normalized, preserving configuration order.
func (c *Config) NormalizedDefaults() []string {
	out := make([]string, 0, len(c.DefaultCategories))
	for _, name := range c.DefaultCategories {
		if normalized := core.NormalizeCategory(name); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}

// MonthlyGoal returns the configured fallback goal amount.
func (c *Config) MonthlyGoal() decimal.Decimal {
	goal, err := decimal.NewFromString(c.DefaultMonthlyGoal)
	if err != nil {
		return decimal.NewFromInt(500)
	}
	return goal
}

// Location returns the reference timezone for report boundaries.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
