package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	var c Config
	c.LoadDefaults()

	applyEnv(&c, lookupFrom(map[string]string{
		"SEHATI_GRPC_ADDR":         ":6000",
		"SEHATI_DATABASE_DSN":      "postgres://x",
		"SEHATI_JWT_SECRET":        "s3cr3t",
		"SEHATI_ACCESS_TOKEN_TTL":  "90s",
		"SEHATI_MAX_GRANT_TTL":     "48h",
		"SEHATI_S3_BUCKET":         "att",
		"SEHATI_S3_ENDPOINT":       "",
		"UNRELATED_JWT_SECRET":     "nope",
		"SEHATI_DEFAULT_GRANT_TTL": "30m",
	}))

	assert.Equal(t, ":6000", c.EndpointAddrGRPC)
	assert.Equal(t, "postgres://x", c.DatabaseDSN)
	assert.Equal(t, "s3cr3t", c.SecretKey)
	assert.Equal(t, 90*time.Second, c.AccessTokenValidityDuration)
	assert.Equal(t, 48*time.Hour, c.MaxGrantTTL)
	assert.Equal(t, 30*time.Minute, c.DefaultGrantTTL)
	assert.Equal(t, "att", c.S3Bucket)
	assert.Empty(t, c.S3BaseEndpoint, "empty values do not override")
	assert.Equal(t, 24*time.Hour, c.RefreshTokenValidityDuration)
}

func TestApplyEnv_BadDurationPanics(t *testing.T) {
	var c Config
	require.Panics(t, func() {
		applyEnv(&c, lookupFrom(map[string]string{"SEHATI_MAX_GRANT_TTL": "a week"}))
	})
}

func TestParseEnv_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SEHATI_LOG_LEVEL=debug\nSEHATI_HTTP_ADDR=:9191\n"), 0o600))

	origEnv := envFile
	t.Cleanup(func() { envFile = origEnv })
	envFile = path

	t.Setenv("SEHATI_HTTP_ADDR", ":7070")
	// godotenv.Load sets variables the test did not; drop them afterwards
	t.Cleanup(func() { os.Unsetenv("SEHATI_LOG_LEVEL") })

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, ":7070", c.EndpointAddrHTTP, "real environment wins over .env")
}
