package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration values from environment variables. A
// .env file in the working directory is loaded first if present; missing
// files are not an error.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString("JOURNAL_HTTP_ADDR", &config.HTTPAddr)
	setString("JOURNAL_DATABASE_DSN", &config.DatabaseDSN)
	setString("JOURNAL_SECRET_KEY", &config.SecretKey)
	setDuration("JOURNAL_TOKEN_VALIDITY", &config.TokenValidityDuration)
	setDuration("JOURNAL_UNIQUENESS_TIMEOUT", &config.UniquenessCheckTimeout)
	setString("JOURNAL_S3_ROOT_USER", &config.S3RootUser)
	setString("JOURNAL_S3_ROOT_PASSWORD", &config.S3RootPassword)
	setString("JOURNAL_S3_BUCKET", &config.S3Bucket)
	setString("JOURNAL_S3_REGION", &config.S3Region)
	setString("JOURNAL_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	setString("JOURNAL_THEME", &config.Theme)
}
