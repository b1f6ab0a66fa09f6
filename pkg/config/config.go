package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/halcyonhq/beacon/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Identity      IdentityConfig      `yaml:"identity"`
	Storage       StorageConfig       `yaml:"storage"`
	Audit         AuditConfig         `yaml:"audit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"healthPort"`
}

// IdentityConfig holds identity provider settings
type IdentityConfig struct {
	IssuerURL string `yaml:"issuerUrl"`
	ClientID  string `yaml:"clientId"`
}

// StorageConfig holds PostgreSQL and Redis settings
type StorageConfig struct {
	PostgresURL         string        `yaml:"postgresUrl"`
	PostgresReplicaURLs string        `yaml:"postgresReplicaUrls"`
	PostgresMaxConns    int           `yaml:"postgresMaxConns"`
	PostgresMinConns    int           `yaml:"postgresMinConns"`
	PostgresTimeout     time.Duration `yaml:"postgresTimeout"`

	RedisURL        string        `yaml:"redisUrl"`
	RedisPassword   string        `yaml:"redisPassword"`
	RedisDB         int           `yaml:"redisDb"`
	RedisMaxRetries int           `yaml:"redisMaxRetries"`
	RedisPoolSize   int           `yaml:"redisPoolSize"`
	BindingTTL      time.Duration `yaml:"bindingTtl"` // zero keeps bindings forever
}

// AuditConfig holds audit trail settings
type AuditConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Retention     time.Duration `yaml:"retention"`
	SweepSchedule string        `yaml:"sweepSchedule"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel     observability.LogLevel `yaml:"-"`
	LogLevelName string                 `yaml:"logLevel"`

	MetricsEnabled bool `yaml:"metricsEnabled"`

	OTelEnabled        bool   `yaml:"otelEnabled"`
	OTelEndpoint       string `yaml:"otelEndpoint"`
	OTelServiceName    string `yaml:"otelServiceName"`
	OTelServiceVersion string `yaml:"otelServiceVersion"`
	OTelInsecure       bool   `yaml:"otelInsecure"`
}

// LoadConfig builds configuration from defaults, an optional YAML file named
// by BEACON_CONFIG_FILE, and environment variables, in that order of
// precedence (environment wins).
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("BEACON_CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	cfg.Observability.LogLevel = parseLogLevel(cfg.Observability.LogLevelName)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Storage: StorageConfig{
			PostgresMaxConns: 25,
			PostgresMinConns: 5,
			PostgresTimeout:  10 * time.Second,
			RedisDB:          0,
			RedisMaxRetries:  3,
			RedisPoolSize:    10,
		},
		Audit: AuditConfig{
			Enabled:       true,
			Retention:     90 * 24 * time.Hour,
			SweepSchedule: "0 3 * * *",
		},
		Observability: ObservabilityConfig{
			LogLevelName:       "info",
			MetricsEnabled:     true,
			OTelEnabled:        false,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "beacon",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("BEACON_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("BEACON_PORT", cfg.Server.Port)
	cfg.Server.HealthPort = getEnv("BEACON_HEALTH_PORT", cfg.Server.HealthPort)
	cfg.Server.ReadTimeout = getEnvDuration("BEACON_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("BEACON_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvDuration("BEACON_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("BEACON_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Identity.IssuerURL = getEnv("BEACON_IDENTITY_ISSUER_URL", cfg.Identity.IssuerURL)
	cfg.Identity.ClientID = getEnv("BEACON_IDENTITY_CLIENT_ID", cfg.Identity.ClientID)

	cfg.Storage.PostgresURL = getEnv("BEACON_POSTGRES_URL", cfg.Storage.PostgresURL)
	cfg.Storage.PostgresReplicaURLs = getEnv("BEACON_POSTGRES_REPLICA_URLS", cfg.Storage.PostgresReplicaURLs)
	cfg.Storage.PostgresMaxConns = getEnvInt("BEACON_POSTGRES_MAX_CONNS", cfg.Storage.PostgresMaxConns)
	cfg.Storage.PostgresMinConns = getEnvInt("BEACON_POSTGRES_MIN_CONNS", cfg.Storage.PostgresMinConns)
	cfg.Storage.PostgresTimeout = getEnvDuration("BEACON_POSTGRES_TIMEOUT", cfg.Storage.PostgresTimeout)
	cfg.Storage.RedisURL = getEnv("BEACON_REDIS_URL", cfg.Storage.RedisURL)
	cfg.Storage.RedisPassword = getEnv("BEACON_REDIS_PASSWORD", cfg.Storage.RedisPassword)
	cfg.Storage.RedisDB = getEnvInt("BEACON_REDIS_DB", cfg.Storage.RedisDB)
	cfg.Storage.RedisMaxRetries = getEnvInt("BEACON_REDIS_MAX_RETRIES", cfg.Storage.RedisMaxRetries)
	cfg.Storage.RedisPoolSize = getEnvInt("BEACON_REDIS_POOL_SIZE", cfg.Storage.RedisPoolSize)
	cfg.Storage.BindingTTL = getEnvDuration("BEACON_TENANT_BINDING_TTL", cfg.Storage.BindingTTL)

	cfg.Audit.Enabled = getEnvBool("BEACON_AUDIT_ENABLED", cfg.Audit.Enabled)
	cfg.Audit.Retention = getEnvDuration("BEACON_AUDIT_RETENTION", cfg.Audit.Retention)
	cfg.Audit.SweepSchedule = getEnv("BEACON_AUDIT_SWEEP_SCHEDULE", cfg.Audit.SweepSchedule)

	cfg.Observability.LogLevelName = getEnv("BEACON_LOG_LEVEL", cfg.Observability.LogLevelName)
	cfg.Observability.MetricsEnabled = getEnvBool("BEACON_METRICS_ENABLED", cfg.Observability.MetricsEnabled)
	cfg.Observability.OTelEnabled = getEnvBool("BEACON_OTEL_ENABLED", cfg.Observability.OTelEnabled)
	cfg.Observability.OTelEndpoint = getEnv("BEACON_OTEL_ENDPOINT", cfg.Observability.OTelEndpoint)
	cfg.Observability.OTelServiceName = getEnv("BEACON_OTEL_SERVICE_NAME", cfg.Observability.OTelServiceName)
	cfg.Observability.OTelServiceVersion = getEnv("BEACON_OTEL_SERVICE_VERSION", cfg.Observability.OTelServiceVersion)
	cfg.Observability.OTelInsecure = getEnvBool("BEACON_OTEL_INSECURE", cfg.Observability.OTelInsecure)
}

// ReplicaURLs splits the comma-separated replica list
func (c *StorageConfig) ReplicaURLs() []string {
	if c.PostgresReplicaURLs == "" {
		return nil
	}
	parts := strings.Split(c.PostgresReplicaURLs, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Storage.RedisURL == "" {
		return fmt.Errorf("redis URL is required")
	}

	if c.Identity.IssuerURL == "" {
		return fmt.Errorf("identity issuer URL is required")
	}
	if c.Identity.ClientID == "" {
		return fmt.Errorf("identity client ID is required")
	}

	if c.Audit.Enabled {
		if c.Audit.Retention <= 0 {
			return fmt.Errorf("audit retention must be positive when audit is enabled")
		}
		if c.Audit.SweepSchedule == "" {
			return fmt.Errorf("audit sweep schedule is required when audit is enabled")
		}
	}

	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
	}
	return nil
}

func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
