package config

import (
	"encoding/json"
	"os"

	"github.com/ljthub/authcli/internal/flagx"
	"github.com/ljthub/authcli/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// use timex.Duration so the file can say "5m" or give integer
// nanoseconds.
type JsonConfig struct {
	BaseURL            string         `json:"base_url"`
	DatabasePath       string         `json:"database_path"`
	RevalidateInterval timex.Duration `json:"revalidate_interval"`
	SessionTTL         timex.Duration `json:"session_ttl"`
	LogLevel           *int           `json:"log_level"`
}

// parseJson overlays cfg with values from the JSON file named by the
// -c/-config flag. Absent file path means no JSON layer. Only fields
// present in the file override the current values. Read or parse errors
// panic; config problems should stop startup.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BaseURL != "" {
		cfg.BaseURL = jc.BaseURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.RevalidateInterval.Duration != 0 {
		cfg.RevalidateInterval = jc.RevalidateInterval.Duration
	}
	if jc.SessionTTL.Duration != 0 {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
}
