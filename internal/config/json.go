package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spiralapp/journal/internal/flagx"
	"github.com/spiralapp/journal/internal/timex"
)

// JSONConfig is an intermediate DTO used only for reading JSON
// configuration files. Interval fields use timex.Duration so both string
// values such as "5s" and integer nanoseconds parse. After unmarshalling,
// its fields are copied into the runtime Config.
type JSONConfig struct {
	HTTPAddr               string         `json:"http_addr"`
	DatabaseDSN            string         `json:"database_dsn"`
	SecretKey              string         `json:"secret_key"`
	TokenValidityDuration  timex.Duration `json:"token_validity_duration"`
	UniquenessCheckTimeout timex.Duration `json:"uniqueness_check_timeout"`
	S3RootUser             string         `json:"s3_root_user"`
	S3RootPassword         string         `json:"s3_root_password"`
	S3Bucket               string         `json:"s3_bucket"`
	S3Region               string         `json:"s3_region"`
	S3BaseEndpoint         string         `json:"s3_base_endpoint"`
	Theme                  string         `json:"theme"`
}

// parseJSON loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no flag is set, nothing is
// loaded. An unreadable or invalid file panics: the process is not meant
// to start with a broken explicit config.
func parseJSON(config *Config) {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JSONConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	config.UniquenessCheckTimeout = time.Duration(c.UniquenessCheckTimeout.Duration)
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.Theme = c.Theme
}
