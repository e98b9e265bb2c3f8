package contract

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/storefront/schema"
)

// Default values for configuration.
const (
	DefaultAPIBaseURL = "https://fakestoreapi.com"
	DefaultAPITimeout = 10 * time.Second
	DefaultStaleTime  = 5 * time.Minute
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultCartKey    = "cart-storage"
	DefaultPrecision  = 2
	MaxPrecision      = 4
)

// Config holds the runtime configuration for the client.
// This struct is the "final, validated" config.
type Config struct {
	APIBaseURL string
	APITimeout time.Duration

	StaleTime  time.Duration
	RetryDelay time.Duration

	StorageBackend   schema.StorageBackend
	StorageDBConnect string // Please use env var as this is plaintext
	CartKey          string

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	Verbose      bool
	OTelEndpoint string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	APIBaseURL       string `mapstructure:"api-base-url"`
	APITimeout       string `mapstructure:"api-timeout"`
	StaleTime        string `mapstructure:"stale-time"`
	RetryDelay       string `mapstructure:"retry-delay"`
	StorageBackend   string `mapstructure:"storage-backend"`
	StorageDBConnect string `mapstructure:"storage-db-connect"`
	CartKey          string `mapstructure:"cart-key"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	Verbose          bool   `mapstructure:"verbose"`
	OTelEndpoint     string `mapstructure:"otel-endpoint"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateAPIInputs(cfg, input); err != nil {
		return err
	}
	if err := validateCacheInputs(cfg, input); err != nil {
		return err
	}
	if err := validateStorageInputs(cfg, input); err != nil {
		return err
	}
	if err := validateOutputInputs(cfg, input); err != nil {
		return err
	}
	cfg.Verbose = input.Verbose
	cfg.OTelEndpoint = strings.TrimSpace(input.OTelEndpoint)
	return nil
}

// validateAPIInputs handles the remote catalog location and transport timeout.
func validateAPIInputs(cfg *Config, input *ConfigRawInput) error {
	base := strings.TrimSpace(input.APIBaseURL)
	if base == "" {
		base = DefaultAPIBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api-base-url '%s'. must be an absolute http(s) URL", input.APIBaseURL)
	}
	cfg.APIBaseURL = strings.TrimRight(base, "/")

	timeout, err := parseDurationOr(input.APITimeout, DefaultAPITimeout)
	if err != nil {
		return fmt.Errorf("invalid api-timeout: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("api-timeout must be greater than 0 (received %s)", timeout)
	}
	cfg.APITimeout = timeout
	return nil
}

// validateCacheInputs handles the query cache policy.
func validateCacheInputs(cfg *Config, input *ConfigRawInput) error {
	stale, err := parseDurationOr(input.StaleTime, DefaultStaleTime)
	if err != nil {
		return fmt.Errorf("invalid stale-time: %w", err)
	}
	if stale < 0 {
		return fmt.Errorf("stale-time cannot be negative (received %s)", stale)
	}
	cfg.StaleTime = stale

	delay, err := parseDurationOr(input.RetryDelay, DefaultRetryDelay)
	if err != nil {
		return fmt.Errorf("invalid retry-delay: %w", err)
	}
	if delay < 0 {
		return fmt.Errorf("retry-delay cannot be negative (received %s)", delay)
	}
	cfg.RetryDelay = delay
	return nil
}

// validateStorageInputs handles the durable storage backend.
func validateStorageInputs(cfg *Config, input *ConfigRawInput) error {
	backend := input.StorageBackend
	if backend == "" {
		backend = string(schema.SQLiteBackend)
	}
	cfg.StorageBackend = schema.StorageBackend(strings.ToLower(backend))
	if _, ok := schema.ValidStorageBackends[cfg.StorageBackend]; !ok {
		return fmt.Errorf("invalid storage backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.StorageBackend)
	}
	cfg.StorageDBConnect = input.StorageDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StorageBackend, cfg.StorageDBConnect); err != nil {
		return err
	}

	cfg.CartKey = strings.TrimSpace(input.CartKey)
	if cfg.CartKey == "" {
		cfg.CartKey = DefaultCartKey
	}
	return nil
}

// validateOutputInputs handles presentation settings.
func validateOutputInputs(cfg *Config, input *ConfigRawInput) error {
	output := input.Output
	if output == "" {
		output = string(schema.TextOut)
	}
	cfg.Output = schema.OutputMode(strings.ToLower(output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json, csv, parquet", input.Output)
	}
	cfg.OutputFile = input.OutputFile
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}
	cfg.Width = input.Width

	color := input.Color
	if color == "" {
		color = "yes"
	}
	colors, err := ParseBoolString(color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors
	return nil
}

// ValidateDatabaseConnectionString validates the format of connection strings
// for the networked backends.
func ValidateDatabaseConnectionString(backend schema.StorageBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("storage-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("storage-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("storage-db-connect is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return fmt.Errorf("Redis connection string must be a redis:// or rediss:// URL")
		}
	}
	return nil
}

// GetStorageDBFilePath returns the path to the SQLite DB file for durable storage.
func GetStorageDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".storefront.db"
	}
	return filepath.Join(homeDir, ".storefront.db")
}

// parseDurationOr parses s as a Go duration, falling back to def when s is empty.
func parseDurationOr(s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
