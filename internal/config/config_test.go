package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stvgt/interfaces/internal/observability"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

var allKnownKeys = []string{
	"IFREG_HOST", "IFREG_PORT", "IFREG_READ_TIMEOUT", "IFREG_WRITE_TIMEOUT",
	"IFREG_IDLE_TIMEOUT", "IFREG_SHUTDOWN_TIMEOUT", "IFREG_HEALTH_PORT",
	"IFREG_POSTGRES_URL", "IFREG_POSTGRES_REPLICA_URLS", "IFREG_POSTGRES_MAX_CONNS",
	"IFREG_POSTGRES_MIN_CONNS", "IFREG_POSTGRES_TIMEOUT", "IFREG_STORE_HOST",
	"IFREG_STORE_PORT", "IFREG_STORE_DATABASE", "IFREG_STORE_USER", "IFREG_STORE_PASSWORD",
	"IFREG_REDIS_URL", "IFREG_REDIS_PASSWORD", "IFREG_REDIS_DB", "IFREG_CACHE_ENABLED",
	"IFREG_L1_CACHE_SIZE", "IFREG_CACHE_TTL",
	"IFREG_ARCHIVER_ENABLED", "IFREG_S3_ENDPOINT", "IFREG_S3_REGION", "IFREG_S3_BUCKET",
	"IFREG_S3_ACCESS_KEY", "IFREG_S3_SECRET_KEY", "IFREG_S3_USE_PATH_STYLE", "IFREG_ARCHIVER_CRON",
	"IFREG_LOG_LEVEL", "IFREG_METRICS_ENABLED", "IFREG_OTEL_ENABLED", "IFREG_OTEL_ENDPOINT",
	"IFREG_OTEL_SERVICE_NAME", "IFREG_OTEL_SERVICE_VERSION", "IFREG_OTEL_INSECURE",
}

func TestLoad_DefaultsWithExplicitPostgresURL(t *testing.T) {
	clearEnv(t, allKnownKeys...)
	os.Setenv("IFREG_POSTGRES_URL", "postgres://u:p@localhost:5432/interfaces?sslmode=disable")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Storage.CacheEnabled)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
}

func TestLoad_MissingPostgresConfigFails(t *testing.T) {
	clearEnv(t, allKnownKeys...)

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_BuildsPostgresURLFromParts(t *testing.T) {
	clearEnv(t, allKnownKeys...)
	os.Setenv("IFREG_STORE_HOST", "db.internal")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Contains(t, cfg.Storage.PostgresURL, "db.internal")
	assert.Contains(t, cfg.Storage.PostgresURL, "interfaces")
}

func TestLoad_SamePortAndHealthPortFails(t *testing.T) {
	clearEnv(t, allKnownKeys...)
	os.Setenv("IFREG_POSTGRES_URL", "postgres://u:p@localhost:5432/interfaces")
	os.Setenv("IFREG_PORT", "8080")
	os.Setenv("IFREG_HEALTH_PORT", "8080")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_ArchiverEnabledRequiresBucket(t *testing.T) {
	clearEnv(t, allKnownKeys...)
	os.Setenv("IFREG_POSTGRES_URL", "postgres://u:p@localhost:5432/interfaces")
	os.Setenv("IFREG_ARCHIVER_ENABLED", "true")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_ArchiverEnabledWithBucketSucceeds(t *testing.T) {
	clearEnv(t, allKnownKeys...)
	os.Setenv("IFREG_POSTGRES_URL", "postgres://u:p@localhost:5432/interfaces")
	os.Setenv("IFREG_ARCHIVER_ENABLED", "true")
	os.Setenv("IFREG_S3_BUCKET", "registry-snapshots")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.Archiver.Enabled)
	assert.Equal(t, "registry-snapshots", cfg.Archiver.S3Bucket)
}

func TestLoad_OTelEnabledRequiresEndpointAndServiceName(t *testing.T) {
	clearEnv(t, allKnownKeys...)
	os.Setenv("IFREG_POSTGRES_URL", "postgres://u:p@localhost:5432/interfaces")
	os.Setenv("IFREG_OTEL_ENABLED", "true")
	os.Setenv("IFREG_OTEL_ENDPOINT", "")
	os.Setenv("IFREG_OTEL_SERVICE_NAME", "")

	_, err := Load()

	assert.Error(t, err)
}

func TestParseLogLevel_UnknownDefaultsToInfo(t *testing.T) {
	clearEnv(t, allKnownKeys...)
	os.Setenv("IFREG_POSTGRES_URL", "postgres://u:p@localhost:5432/interfaces")
	os.Setenv("IFREG_LOG_LEVEL", "not-a-level")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
}

func TestGetEnvBool_AcceptsOneAndTrue(t *testing.T) {
	clearEnv(t, allKnownKeys...)
	os.Setenv("IFREG_POSTGRES_URL", "postgres://u:p@localhost:5432/interfaces")
	os.Setenv("IFREG_CACHE_ENABLED", "1")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.Storage.CacheEnabled)
}

func TestGetEnvInt_InvalidValueFallsBackToDefault(t *testing.T) {
	clearEnv(t, allKnownKeys...)
	os.Setenv("IFREG_POSTGRES_URL", "postgres://u:p@localhost:5432/interfaces")
	os.Setenv("IFREG_L1_CACHE_SIZE", "not-a-number")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Storage.L1CacheSize)
}
