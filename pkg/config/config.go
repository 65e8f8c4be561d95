/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendPebble   = "pebble"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
	BackendS3       = "s3"
	BackendMinIO    = "minio"
)

// Backends lists every supported store backend
var Backends = []string{BackendPebble, BackendSQLite, BackendPostgres, BackendDynamoDB, BackendS3, BackendMinIO}

// EnvPrefix prefixes every environment variable read by ApplyEnv
const EnvPrefix = "GEOIMG_"

// Config represents the GeoImg configuration
type Config struct {
	DataDir string  `yaml:"data_dir"`
	Port    int     `yaml:"port"`
	Bind    string  `yaml:"bind"`
	Server  Server  `yaml:"server"`
	Store   Store   `yaml:"store"`
	Logging Logging `yaml:"logging"`
}

// Server contains HTTP server settings
type Server struct {
	CORSOrigins     []string      `yaml:"cors_origins"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"` // 0 disables the limit
	Compression     bool          `yaml:"compression"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Store selects and configures the record store backend
type Store struct {
	Backend  string   `yaml:"backend"`
	Pebble   Pebble   `yaml:"pebble"`
	SQLite   SQLite   `yaml:"sqlite"`
	Postgres Postgres `yaml:"postgres"`
	DynamoDB DynamoDB `yaml:"dynamodb"`
	S3       S3       `yaml:"s3"`
	MinIO    MinIO    `yaml:"minio"`
}

// Pebble configures the embedded pebble store
type Pebble struct {
	Path string `yaml:"path"` // defaults to <data_dir>/pebble
	Sync bool   `yaml:"sync"`
}

// SQLite configures the SQLite store
type SQLite struct {
	Path string `yaml:"path"` // defaults to <data_dir>/geoimg.db
}

// Postgres configures the PostgreSQL store
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DynamoDB configures the DynamoDB store
type DynamoDB struct {
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// S3 configures the S3 object store
type S3 struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// MinIO configures the MinIO object store
type MinIO struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Secure    bool   `yaml:"secure"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    4000,
		Bind:    "0.0.0.0",
		Server: Server{
			CORSOrigins:     []string{"*"},
			Compression:     true,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: Store{
			Backend: BackendPebble,
			Pebble: Pebble{
				Sync: true,
			},
			Postgres: Postgres{
				MaxOpenConns:    25,
				MaxIdleConns:    25,
				ConnMaxLifetime: 5 * time.Minute,
			},
			DynamoDB: DynamoDB{
				Table: "images",
			},
			MinIO: MinIO{
				Secure: true,
			},
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from the specified path. Fields missing
// from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold object store credentials or a database DSN
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// BootstrapConfig writes a default configuration for the given data directory and backend
func BootstrapConfig(configPath, dataDir, backend string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}
	if backend != "" {
		config.Store.Backend = backend
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./geoimg.yaml"
	}

	// For Linux/macOS, use ~/.config/geoimg/config.yaml
	configDir := filepath.Join(homeDir, ".config", "geoimg")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}

// ApplyEnv overrides connection settings from GEOIMG_* environment variables.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	str("DATA_DIR", &c.DataDir)
	str("BIND", &c.Bind)
	str("STORE_BACKEND", &c.Store.Backend)
	str("SQLITE_PATH", &c.Store.SQLite.Path)
	str("POSTGRES_DSN", &c.Store.Postgres.DSN)
	str("DYNAMODB_TABLE", &c.Store.DynamoDB.Table)
	str("S3_BUCKET", &c.Store.S3.Bucket)
	str("MINIO_ENDPOINT", &c.Store.MinIO.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Store.MinIO.AccessKey)
	str("MINIO_SECRET_KEY", &c.Store.MinIO.SecretKey)
	str("MINIO_BUCKET", &c.Store.MinIO.Bucket)
	str("LOG_LEVEL", &c.Logging.Level)

	if v, ok := lookup(EnvPrefix + "PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT %q: %w", EnvPrefix, v, err)
		}
		c.Port = port
	}

	return nil
}

// Resolve fills in paths derived from DataDir
func (c *Config) Resolve() {
	if c.Store.Pebble.Path == "" {
		c.Store.Pebble.Path = filepath.Join(c.DataDir, "pebble")
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = filepath.Join(c.DataDir, "geoimg.db")
	}
}

// Validate reports every configuration problem found
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Server.MaxUploadBytes < 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must not be negative"))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}

	if err := c.Store.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks that the selected backend has the settings it needs
func (s *Store) Validate() error {
	required := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("store.%s is required for the %s backend", field, s.Backend)
		}
		return nil
	}

	switch s.Backend {
	case BackendPebble, BackendSQLite:
		return nil
	case BackendPostgres:
		return required("postgres.dsn", s.Postgres.DSN)
	case BackendDynamoDB:
		return required("dynamodb.table", s.DynamoDB.Table)
	case BackendS3:
		return required("s3.bucket", s.S3.Bucket)
	case BackendMinIO:
		return errors.Join(
			required("minio.endpoint", s.MinIO.Endpoint),
			required("minio.access_key", s.MinIO.AccessKey),
			required("minio.secret_key", s.MinIO.SecretKey),
			required("minio.bucket", s.MinIO.Bucket),
		)
	default:
		return fmt.Errorf("unknown store backend %q (want one of %s)", s.Backend, strings.Join(Backends, ", "))
	}
}
