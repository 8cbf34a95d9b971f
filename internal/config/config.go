package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"sumator/internal/log"
	"sumator/internal/store"
)

// Backend names accepted in DATA_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var validBackends = []string{BackendMemory, BackendSQLite}

type Config struct {
	// Storage
	DataBackend  string `env:"DATA_BACKEND"   env-default:"sqlite"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" env-default:"./data/sumator.db"`

	// AMQP change events; empty URL disables publishing
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" env-default:"sumator"`
	AMQPQueue    string `env:"AMQP_QUEUE"    env-default:"report_exports"`

	// Google Sheets report target, used by the worker and `export --format sheets`
	GoogleSpreadsheetID      string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `env:"GOOGLE_SHEET_NAME"           env-default:"Report"`
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Reports
	ReportTitle    string `env:"REPORT_TITLE"    env-default:"Transaction report"`
	ReportCurrency string `env:"REPORT_CURRENCY" env-default:"PLN"`
	ExportDir      string `env:"EXPORT_DIR"      env-default:"."`
	// TrueType font embedded in PDF exports, needed for names outside cp1252
	PDFFontFile string `env:"PDF_FONT_FILE"`

	// Identities, "name" or "name=image", comma separated
	Roster string `env:"ROSTER" env-default:"User,Ala"`

	// Observability
	LogLevel    string `env:"LOG_LEVEL"    env-default:"info"`
	LogFormat   string `env:"LOG_FORMAT"   env-default:"tint"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

// Load reads a .env file when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	return &cfg, nil
}

// Usage describes every supported environment variable.
func Usage() string {
	desc, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return ""
	}
	return desc
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
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

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if strings.TrimSpace(c.ReportTitle) == "" {
		errors = append(errors, "report title cannot be empty")
	}

	if _, err := store.ParseRoster(c.Roster); err != nil {
		errors = append(errors, fmt.Sprintf("invalid roster: %v", err))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if !slices.Contains([]string{log.FormatTint, log.FormatText, log.FormatJSON}, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be tint, text or json", c.LogFormat))
	}

	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid metrics address '%s': %v", c.MetricsAddr, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateSheets reports what is missing to publish reports to Google Sheets.
func (c *Config) ValidateSheets() error {
	var errors []string
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for sheets export")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "GOOGLE_SHEET_NAME is required for sheets export")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets export")
	}
	if len(errors) > 0 {
		return fmt.Errorf("sheets configuration incomplete:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
