package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.TokenValidityDuration)
	assert.Equal(t, 5*time.Second, cfg.UniquenessCheckTimeout)
	assert.Equal(t, "journal-exports", cfg.S3Bucket)
	assert.Equal(t, "classic", cfg.Theme)
	assert.NotEmpty(t, cfg.DatabaseDSN)
}

func TestParseEnvOverlays(t *testing.T) {
	t.Setenv("JOURNAL_HTTP_ADDR", ":9999")
	t.Setenv("JOURNAL_SECRET_KEY", "from-env")
	t.Setenv("JOURNAL_TOKEN_VALIDITY", "30m")
	t.Setenv("JOURNAL_THEME", "misty")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "from-env", cfg.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.TokenValidityDuration)
	assert.Equal(t, "misty", cfg.Theme)
	// Untouched fields keep their defaults.
	assert.Equal(t, "journal-exports", cfg.S3Bucket)
}

func TestParseEnvIgnoresInvalidDuration(t *testing.T) {
	t.Setenv("JOURNAL_TOKEN_VALIDITY", "not-a-duration")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, 15*time.Minute, cfg.TokenValidityDuration)
}

func TestJSONConfigUnmarshal(t *testing.T) {
	raw := `{
		"http_addr": ":7070",
		"database_dsn": "postgres://u:p@h:5432/db",
		"secret_key": "from-json",
		"token_validity_duration": "1h",
		"uniqueness_check_timeout": 3000000000,
		"theme": "latte"
	}`

	c := &JSONConfig{}
	require.NoError(t, json.Unmarshal([]byte(raw), c))

	assert.Equal(t, ":7070", c.HTTPAddr)
	assert.Equal(t, "from-json", c.SecretKey)
	assert.Equal(t, time.Hour, c.TokenValidityDuration.Duration)
	assert.Equal(t, 3*time.Second, c.UniquenessCheckTimeout.Duration)
	assert.Equal(t, "latte", c.Theme)
}
