package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Driver names accepted in [DatabaseConfig.Driver].
const (
	DriverSQLite    = "sqlite"
	DriverDatastore = "datastore"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Datastore DatastoreConfig `toml:"datastore"`
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Import    ImportConfig    `toml:"import"`
}

// DatabaseConfig selects the storage backend and holds SQLite connection settings.
type DatabaseConfig struct {
	Driver       string `toml:"driver" env:"SONGBOOK_DB_DRIVER"`
	Path         string `toml:"path" env:"SONGBOOK_DB_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	BusyTimeout  int    `toml:"busy_timeout_ms"`
}

// DatastoreConfig contains Google Cloud Datastore settings.
//
// An empty credentials path falls back to Application Default Credentials.
type DatastoreConfig struct {
	ProjectID       string `toml:"project_id" env:"SONGBOOK_DATASTORE_PROJECT"`
	CredentialsFile string `toml:"credentials_file" env:"SONGBOOK_DATASTORE_CREDENTIALS"`
	Namespace       string `toml:"namespace" env:"SONGBOOK_DATASTORE_NAMESPACE"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string  `toml:"host" env:"SONGBOOK_SERVER_HOST"`
	Port           int     `toml:"port" env:"SONGBOOK_SERVER_PORT"`
	RequestsPerSec float64 `toml:"requests_per_sec"`
	Burst          int     `toml:"burst"`
}

// LoggingConfig controls log level and optional rotating file output.
type LoggingConfig struct {
	Level      string `toml:"level" env:"SONGBOOK_LOG_LEVEL"`
	File       string `toml:"file" env:"SONGBOOK_LOG_FILE"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// ImportConfig tunes bulk CSV imports.
type ImportConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate reports configuration that cannot open a backend.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for the sqlite driver", ErrInvalidConfig)
		}
	case DriverDatastore:
		if c.Datastore.ProjectID == "" {
			return fmt.Errorf("%w: datastore.project_id is required for the datastore driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Database.Driver)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults, and SONGBOOK_* environment variables override both.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides config fields from SONGBOOK_* environment variables.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: parse env: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
