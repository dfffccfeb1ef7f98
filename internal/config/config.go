package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Admission    AdmissionConfig    `yaml:"admission"`
	Verification VerificationConfig `yaml:"verification"`
	SES          SESConfig          `yaml:"ses"`
	Export       ExportConfig       `yaml:"export"`
	Log          LogConfig          `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds"`
}

// ConnLifetime returns the configured connection lifetime as a duration
func (c DatabaseConfig) ConnLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetime) * time.Second
}

// RedisConfig holds the Redis connection used for DNS caching and locks.
// An empty URL disables Redis; locks then fall back to Postgres.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// AdmissionConfig holds subscriber admission pipeline settings
type AdmissionConfig struct {
	DNSTimeoutSeconds       int      `yaml:"dns_timeout_seconds"`
	DNSCacheTTLSeconds      int      `yaml:"dns_cache_ttl_seconds"`
	BlacklistOnFailure      *bool    `yaml:"blacklist_on_failure"`
	FreeProviders           []string `yaml:"free_providers"`
	DisposableProviders     []string `yaml:"disposable_providers"`
	FreeProvidersFile       string   `yaml:"free_providers_file"`
	DisposableProvidersFile string   `yaml:"disposable_providers_file"`
	ImportLockSeconds       int      `yaml:"import_lock_seconds"`
}

// DNSTimeout returns the per-lookup DNS timeout
func (c AdmissionConfig) DNSTimeout() time.Duration {
	return time.Duration(c.DNSTimeoutSeconds) * time.Second
}

// DNSCacheTTL returns how long DNS results stay cached
func (c AdmissionConfig) DNSCacheTTL() time.Duration {
	return time.Duration(c.DNSCacheTTLSeconds) * time.Second
}

// ImportLockTTL bounds how long a crashed import can hold a list lock
func (c AdmissionConfig) ImportLockTTL() time.Duration {
	return time.Duration(c.ImportLockSeconds) * time.Second
}

// DefaultBlacklistOnFailure is the value new lists get when the request
// does not set blacklist_on_failure.
func (c AdmissionConfig) DefaultBlacklistOnFailure() bool {
	if c.BlacklistOnFailure == nil {
		return true
	}
	return *c.BlacklistOnFailure
}

// VerificationConfig holds signed-link settings for email verification
type VerificationConfig struct {
	SigningKey string `yaml:"signing_key"`
	BaseURL    string `yaml:"base_url"`
}

// SESConfig holds AWS SES settings for verification and test sends
type SESConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ExportConfig holds the S3 destination for archived exports
type ExportConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	Prefix   string `yaml:"prefix"`
}

// Enabled reports whether export archiving is configured
func (c ExportConfig) Enabled() bool { return c.S3Bucket != "" }

// LogConfig holds logging settings
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether PII redaction is on (default true)
func (c LogConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}
	if cfg.Admission.DNSTimeoutSeconds == 0 {
		cfg.Admission.DNSTimeoutSeconds = 5
	}
	if cfg.Admission.DNSCacheTTLSeconds == 0 {
		cfg.Admission.DNSCacheTTLSeconds = 3600
	}
	if cfg.Admission.ImportLockSeconds == 0 {
		cfg.Admission.ImportLockSeconds = 600
	}
	if cfg.Verification.BaseURL == "" {
		cfg.Verification.BaseURL = "http://localhost:8080"
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-east-1"
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 10
	}
	if cfg.Export.S3Region == "" {
		cfg.Export.S3Region = "us-east-1"
	}
	if cfg.Export.Prefix == "" {
		cfg.Export.Prefix = "exports/"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets
// can live in .env locally and in real env vars in production. A missing
// config file is not an error: defaults plus env are used.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if os.IsNotExist(err) {
		cfg = &Config{}
		cfg.applyDefaults()
	} else if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("SIGNING_KEY"); v != "" {
		cfg.Verification.SigningKey = v
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		cfg.Verification.BaseURL = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("SES_FROM_EMAIL"); v != "" {
		cfg.SES.FromEmail = v
	}
	if v := os.Getenv("EXPORT_S3_BUCKET"); v != "" {
		cfg.Export.S3Bucket = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}
