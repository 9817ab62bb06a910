package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/stvgt/interfaces/internal/observability"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Storage       StorageConfig
	Archiver      ArchiverConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	HealthPort      string // separate port for k8s probes, per spec's "external collaborator" boundary
}

// StorageConfig holds PostgreSQL and Redis connection parameters. Per
// spec §7, the only store parameters that affect behavior are host,
// port, database name, user, password — everything else (pooling,
// cache) is an ambient concern the spec leaves to the hosting process.
type StorageConfig struct {
	PostgresURL         string
	PostgresReplicaURLs string
	PostgresMaxConns    int
	PostgresMinConns    int
	PostgresTimeout     time.Duration

	RedisURL      string
	RedisPassword string
	RedisDB       int
	CacheEnabled  bool
	L1CacheSize   int
	CacheTTL      time.Duration
}

// ArchiverConfig holds the S3 snapshot-archival settings (spec §12
// supplemental feature).
type ArchiverConfig struct {
	Enabled        bool
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
	CronSchedule   string
}

// ObservabilityConfig holds logging, metrics and tracing settings.
type ObservabilityConfig struct {
	LogLevel           observability.LogLevel
	MetricsEnabled     bool
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Archiver:      loadArchiverConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("IFREG_HOST", "0.0.0.0"),
		Port:            getEnv("IFREG_PORT", "8080"),
		ReadTimeout:     getEnvDuration("IFREG_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("IFREG_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("IFREG_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("IFREG_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("IFREG_HEALTH_PORT", "9090"),
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		PostgresURL:         getEnv("IFREG_POSTGRES_URL", buildPostgresURLFromParts()),
		PostgresReplicaURLs: getEnv("IFREG_POSTGRES_REPLICA_URLS", ""),
		PostgresMaxConns:    getEnvInt("IFREG_POSTGRES_MAX_CONNS", 25),
		PostgresMinConns:    getEnvInt("IFREG_POSTGRES_MIN_CONNS", 5),
		PostgresTimeout:     getEnvDuration("IFREG_POSTGRES_TIMEOUT", 5*time.Second),

		RedisURL:      getEnv("IFREG_REDIS_URL", ""),
		RedisPassword: getEnv("IFREG_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("IFREG_REDIS_DB", 0),
		CacheEnabled:  getEnvBool("IFREG_CACHE_ENABLED", true),
		L1CacheSize:   getEnvInt("IFREG_L1_CACHE_SIZE", 1),
		CacheTTL:      getEnvDuration("IFREG_CACHE_TTL", 30*time.Second),
	}
}

// buildPostgresURLFromParts assembles a DSN from the individual
// host/port/dbname/user/password knobs spec §7 names explicitly, used
// when IFREG_POSTGRES_URL itself isn't set.
func buildPostgresURLFromParts() string {
	host := getEnv("IFREG_STORE_HOST", "")
	if host == "" {
		return ""
	}
	port := getEnv("IFREG_STORE_PORT", "5432")
	dbname := getEnv("IFREG_STORE_DATABASE", "interfaces")
	user := getEnv("IFREG_STORE_USER", "interfaces")
	password := getEnv("IFREG_STORE_PASSWORD", "")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname)
}

func loadArchiverConfig() ArchiverConfig {
	return ArchiverConfig{
		Enabled:        getEnvBool("IFREG_ARCHIVER_ENABLED", false),
		S3Endpoint:     getEnv("IFREG_S3_ENDPOINT", ""),
		S3Region:       getEnv("IFREG_S3_REGION", "us-east-1"),
		S3Bucket:       getEnv("IFREG_S3_BUCKET", ""),
		S3AccessKey:    getEnv("IFREG_S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("IFREG_S3_SECRET_KEY", ""),
		S3UsePathStyle: getEnvBool("IFREG_S3_USE_PATH_STYLE", false),
		CronSchedule:   getEnv("IFREG_ARCHIVER_CRON", "0 */6 * * *"),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("IFREG_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("IFREG_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("IFREG_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("IFREG_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("IFREG_OTEL_SERVICE_NAME", "interface-registry"),
		OTelServiceVersion: getEnv("IFREG_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("IFREG_OTEL_INSECURE", true),
	}
}

// Validate checks the configuration is internally consistent.
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
		return fmt.Errorf("postgres connection is required: set IFREG_POSTGRES_URL or IFREG_STORE_HOST")
	}

	if c.Archiver.Enabled {
		if c.Archiver.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required when the archiver is enabled")
		}
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
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

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
