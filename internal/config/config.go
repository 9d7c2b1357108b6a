package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the server configuration.
//
// Sources (highest precedence first): environment variables, the optional
// config file, defaults. Nested keys map to env vars by replacing "." with
// "_", e.g. storage.s3.bucket -> STORAGE_S3_BUCKET.
type Config struct {
	Port        string `mapstructure:"port" validate:"required"`
	Environment string `mapstructure:"environment" validate:"oneof=dev test prod"`
	CORSOrigins string `mapstructure:"cors_origins"`
	TablePrefix string `mapstructure:"table_prefix"`
	// Debug forces the debug log level regardless of log.level
	Debug bool `mapstructure:"debug"`

	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Upload   UploadConfig   `mapstructure:"upload"`
}

// LogConfig controls logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	// Dir, when set, also writes logs to a timestamped file in this directory
	Dir      string `mapstructure:"dir"`
	MaxFiles int    `mapstructure:"max_files" validate:"gte=1"`
}

// AuthConfig selects how bearer tokens are verified.
// JWKSURL takes precedence over JWTSecret.
type AuthConfig struct {
	JWKSURL   string `mapstructure:"jwks_url" validate:"omitempty,url"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// DatabaseConfig selects the entity store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres badger"`
	URL    string `mapstructure:"url"`
	// BadgerPath is the badger data directory; empty runs in memory
	BadgerPath  string `mapstructure:"badger_path"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// StorageConfig selects the default storage provider and carries every
// provider's connection parameters. Parameters for non-default providers are
// still used to read files stored under them.
type StorageConfig struct {
	Provider string             `mapstructure:"provider" validate:"oneof=local s3 minio gcs google"`
	Local    LocalStorageConfig `mapstructure:"local"`
	S3       S3StorageConfig    `mapstructure:"s3"`
	GCS      GCSStorageConfig   `mapstructure:"gcs"`
}

type LocalStorageConfig struct {
	BasePath string `mapstructure:"base_path"`
}

type S3StorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	// ForcePathStyle is required by MinIO and most S3-compatible servers
	ForcePathStyle bool `mapstructure:"force_path_style"`
}

type GCSStorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
	// Endpoint overrides the API endpoint (fake-gcs-server in tests)
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes" validate:"gt=0"`
}

// Load reads configuration from defaults, the optional config file and the
// environment, then validates it. configPath may be empty.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDerived(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("environment", "dev")
	v.SetDefault("cors_origins", "http://localhost:3000")
	v.SetDefault("table_prefix", "")
	v.SetDefault("debug", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.max_files", 10)

	v.SetDefault("auth.jwks_url", "")
	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("database.driver", "badger")
	v.SetDefault("database.url", "")
	v.SetDefault("database.badger_path", "")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local.base_path", "./uploads")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.force_path_style", false)
	v.SetDefault("storage.gcs.bucket", "")
	v.SetDefault("storage.gcs.credentials_file", "")
	v.SetDefault("storage.gcs.endpoint", "")

	v.SetDefault("upload.max_bytes", DefaultMaxUploadBytes)
}

// applyDerived fills values that depend on other settings.
func applyDerived(cfg *Config) {
	cfg.Environment = strings.ToLower(cfg.Environment)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if cfg.Debug {
		cfg.Log.Level = "debug"
	}
	cfg.Storage.Provider = strings.ToLower(strings.TrimSpace(cfg.Storage.Provider))
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = "local"
	}
	if cfg.TablePrefix == "" {
		cfg.TablePrefix = getTablePrefix(cfg.Environment)
	}
}

// IsProduction reports whether the server runs in the prod environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "prod"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

// ConfigPathFromEnv returns CONFIG_FILE, used when no -config flag is given.
func ConfigPathFromEnv() string {
	return os.Getenv("CONFIG_FILE")
}
