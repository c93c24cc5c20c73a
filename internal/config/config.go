// Package config provides configuration loading for the logo gallery.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. LOGO_GALLERY_STORAGE_DSN.
const EnvPrefix = "LOGO_GALLERY_"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config represents the complete service configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Upload  UploadConfig  `yaml:"upload"`
	Policy  PolicyConfig  `yaml:"policy"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	// Addr is the listen address (default: :8080)
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AllowedOrigins feeds the CORS middleware
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// UploadConfig bounds what an upload may contain
type UploadConfig struct {
	// MaxBytes is the only upload size cap; the HTTP layer and the guard both read it.
	MaxBytes int64 `yaml:"max_bytes"`
	// MaxPixels bounds the decoded raster canvas (width * height).
	MaxPixels            int64 `yaml:"max_pixels"`
	MaxTitleLength       int   `yaml:"max_title_length"`
	MaxDescriptionLength int   `yaml:"max_description_length"`
	MaxTags              int   `yaml:"max_tags"`
	MaxTagLength         int   `yaml:"max_tag_length"`
}

// PolicyConfig selects duplicate and similarity rules
type PolicyConfig struct {
	// AllowSystemDuplicates lets different owners upload byte-identical files
	AllowSystemDuplicates bool `yaml:"allow_system_duplicates"`
	// AllowSimilarImages disables the same-owner similarity check
	AllowSimilarImages bool `yaml:"allow_similar_images"`
	// SimilarityThreshold rejects same-owner uploads scoring strictly above it
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	// Driver is one of memory, sqlite, mongo, postgres
	Driver string `yaml:"driver"`
	// DSN is a file path (sqlite), URI (mongo) or connection string (postgres)
	DSN        string `yaml:"dsn"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`
	// Format is json or console
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Upload: UploadConfig{
			MaxBytes:             2 << 20,
			MaxPixels:            4096 * 4096,
			MaxTitleLength:       100,
			MaxDescriptionLength: 1000,
			MaxTags:              10,
			MaxTagLength:         30,
		},
		Policy: PolicyConfig{
			AllowSystemDuplicates: true,
			AllowSimilarImages:    false,
			SimilarityThreshold:   0.85,
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			DSN:        "logo-gallery.db",
			Database:   "logo_gallery",
			Collection: "logos",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}
	if c.Upload.MaxPixels <= 0 {
		return fmt.Errorf("upload.max_pixels must be positive")
	}
	if c.Upload.MaxTitleLength <= 0 {
		return fmt.Errorf("upload.max_title_length must be positive")
	}
	if c.Upload.MaxTags <= 0 || c.Upload.MaxTagLength <= 0 || c.Upload.MaxDescriptionLength <= 0 {
		return fmt.Errorf("upload tag and description limits must be positive")
	}
	if c.Policy.SimilarityThreshold <= 0 || c.Policy.SimilarityThreshold >= 1 {
		return fmt.Errorf("policy.similarity_threshold must be between 0 and 1 (exclusive)")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for %s", c.Storage.Driver)
		}
	case DriverMongo:
		if c.Storage.DSN == "" || c.Storage.Database == "" || c.Storage.Collection == "" {
			return fmt.Errorf("storage.dsn, storage.database and storage.collection are required for mongo")
		}
	default:
		return fmt.Errorf("storage.driver %q is not one of memory, sqlite, mongo, postgres", c.Storage.Driver)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be json or console")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when path is empty), then a .env file in the working
// directory if present, then LOGO_GALLERY_* variables. The result is validated.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		var err error
		if config, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("SERVER_ADDR", &c.Server.Addr)
	if v, ok := lookup(EnvPrefix + "SERVER_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "UPLOAD_MAX_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sUPLOAD_MAX_BYTES: %w", EnvPrefix, err))
		} else {
			c.Upload.MaxBytes = n
		}
	}
	if v, ok := lookup(EnvPrefix + "UPLOAD_MAX_PIXELS"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sUPLOAD_MAX_PIXELS: %w", EnvPrefix, err))
		} else {
			c.Upload.MaxPixels = n
		}
	}
	boolean("POLICY_ALLOW_SYSTEM_DUPLICATES", &c.Policy.AllowSystemDuplicates)
	boolean("POLICY_ALLOW_SIMILAR_IMAGES", &c.Policy.AllowSimilarImages)
	if v, ok := lookup(EnvPrefix + "POLICY_SIMILARITY_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sPOLICY_SIMILARITY_THRESHOLD: %w", EnvPrefix, err))
		} else {
			c.Policy.SimilarityThreshold = f
		}
	}
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_DSN", &c.Storage.DSN)
	str("STORAGE_DATABASE", &c.Storage.Database)
	str("STORAGE_COLLECTION", &c.Storage.Collection)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
