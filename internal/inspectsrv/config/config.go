// Package config loads and validates the inspection server configuration
// from a TOML file, with database credentials overridable through the
// environment (a .env file is honored in development).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Version is the supported configuration file format version.
const Version = "0.1.0"

// MonitoringConfig holds monitoring feed configuration.
type MonitoringConfig struct {
	DefaultPageSize int `toml:"default_page_size"` // page size when the caller omits limit
	MaxPageSize     int `toml:"max_page_size"`     // hard cap on limit
	FetchMargin     int `toml:"fetch_margin"`      // extra rows fetched per source table
}

// ConfigParam holds all configuration parameters for the inspection server.
type ConfigParam struct {
	FormatVersion string `toml:"format_version"` // version of this configuration file format

	ServerHostName     string `toml:"server_hostname"`       // hostname for the server
	ServerPort         string `toml:"server_port"`           // port for the HTTP server
	HandleCORS         bool   `toml:"handle_cors"`           // whether to handle CORS
	MaxRequestBodySize int64  `toml:"max_request_body_size"` // maximum size of request body in bytes

	DefaultDepotID string `toml:"default_depot_id"` // depot served by this deployment

	Monitoring MonitoringConfig `toml:"monitoring"`

	DB struct {
		Host     string `toml:"host"`
		Port     int    `toml:"port"`
		DBName   string `toml:"dbname"`
		User     string `toml:"user"`
		Password string `toml:"password"`
		SSLMode  string `toml:"sslmode"`
	} `toml:"db"`
}

var cfg *ConfigParam

// Config returns the current configuration.
func Config() *ConfigParam {
	return cfg
}

// DSN returns the database connection string.
func (c *ConfigParam) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.DBName, c.DB.SSLMode)
}

// RailcheckDSN returns the DSN for the inspection database.
func RailcheckDSN() string {
	return cfg.DSN()
}

// ValidateConfig checks that all required configuration values are present
// and valid.
func ValidateConfig(cfg *ConfigParam) error {
	if cfg.FormatVersion != Version {
		return fmt.Errorf("unsupported config file format version: %s", cfg.FormatVersion)
	}
	if cfg.ServerPort == "" {
		return fmt.Errorf("server_port is required")
	}
	if cfg.DefaultDepotID == "" {
		return fmt.Errorf("default_depot_id is required")
	}
	if err := validateMonitoringConfig(cfg); err != nil {
		return err
	}
	if err := validateDBConfig(cfg); err != nil {
		return err
	}
	return nil
}

func validateMonitoringConfig(cfg *ConfigParam) error {
	if cfg.Monitoring.DefaultPageSize <= 0 {
		cfg.Monitoring.DefaultPageSize = 20
	}
	if cfg.Monitoring.MaxPageSize <= 0 {
		cfg.Monitoring.MaxPageSize = 100
	}
	if cfg.Monitoring.FetchMargin <= 0 {
		cfg.Monitoring.FetchMargin = 50
	}
	if cfg.Monitoring.DefaultPageSize > cfg.Monitoring.MaxPageSize {
		return fmt.Errorf("monitoring.default_page_size exceeds monitoring.max_page_size")
	}
	return nil
}

func validateDBConfig(cfg *ConfigParam) error {
	if cfg.DB.Host == "" {
		return fmt.Errorf("db.host is required")
	}
	if cfg.DB.Port <= 0 {
		return fmt.Errorf("db.port must be positive")
	}
	if cfg.DB.DBName == "" {
		return fmt.Errorf("db.dbname is required")
	}
	if cfg.DB.User == "" {
		return fmt.Errorf("db.user is required")
	}
	if cfg.DB.Password == "" {
		return fmt.Errorf("db.password is required")
	}
	if cfg.DB.SSLMode == "" {
		return fmt.Errorf("db.sslmode is required")
	}
	return nil
}

// applyEnvOverrides lets deployment environments supply DB credentials
// without writing them into the config file.
func applyEnvOverrides(cfg *ConfigParam) {
	if v := os.Getenv("RAILCHECK_DB_HOST"); v != "" {
		cfg.DB.Host = v
	}
	if v := os.Getenv("RAILCHECK_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.DB.Port = port
		}
	}
	if v := os.Getenv("RAILCHECK_DB_USER"); v != "" {
		cfg.DB.User = v
	}
	if v := os.Getenv("RAILCHECK_DB_PASSWORD"); v != "" {
		cfg.DB.Password = v
	}
	if v := os.Getenv("RAILCHECK_DB_NAME"); v != "" {
		cfg.DB.DBName = v
	}
}

// LoadConfig loads configuration from a file.
func LoadConfig(filename string) error {
	if filename == "" {
		return fmt.Errorf("config filename is required")
	}

	// A .env alongside the working directory is optional.
	_ = godotenv.Load()

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	cfg = &ConfigParam{}
	if _, err := toml.Decode(string(content), cfg); err != nil {
		return fmt.Errorf("error parsing config file: %v", err)
	}

	applyEnvOverrides(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	return nil
}

var isTest = false

// IsTest reports whether the service is running in test mode.
func IsTest() bool {
	return isTest
}

// SetTestMode sets the test mode flag.
func SetTestMode(test bool) {
	isTest = test
}

// TestInit loads the repository-root config file for tests. It walks up from
// the working directory until it finds go.mod.
func TestInit() {
	isTest = true
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	projectRoot := wd
	for {
		if _, err := os.Stat(filepath.Join(projectRoot, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(projectRoot)
		if parent == projectRoot {
			panic("could not find project root (go.mod)")
		}
		projectRoot = parent
	}
	if err := LoadConfig(filepath.Join(projectRoot, "railchecksrv.conf")); err != nil {
		panic(fmt.Errorf("error loading config: %v", err))
	}
}
