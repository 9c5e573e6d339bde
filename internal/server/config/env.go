package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sehati-health/sehati/internal/timex"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "SEHATI_"

var envFile = ".env"

// parseEnv loads .env (when present; real environment variables win) and
// then overlays every SEHATI_* variable that is set. A malformed duration
// panics.
func parseEnv(config *Config) {
	_ = godotenv.Load(envFile)
	applyEnv(config, os.LookupEnv)
}

func applyEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, name string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(dst *time.Duration, name string) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		setDuration(dst, timex.Duration{Duration: d})
	}

	str(&config.EndpointAddrGRPC, "GRPC_ADDR")
	str(&config.EndpointAddrHTTP, "HTTP_ADDR")
	str(&config.DatabaseDSN, "DATABASE_DSN")
	str(&config.SecretKey, "JWT_SECRET")
	str(&config.LogLevel, "LOG_LEVEL")
	dur(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	dur(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_TTL")
	dur(&config.DefaultGrantTTL, "DEFAULT_GRANT_TTL")
	dur(&config.MaxGrantTTL, "MAX_GRANT_TTL")
	str(&config.S3AccessKey, "S3_ACCESS_KEY")
	str(&config.S3SecretKey, "S3_SECRET_KEY")
	str(&config.S3Bucket, "S3_BUCKET")
	str(&config.S3Region, "S3_REGION")
	str(&config.S3BaseEndpoint, "S3_ENDPOINT")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
