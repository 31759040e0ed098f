// Package config assembles runtime settings for the auth CLI from
// defaults, an optional JSON file, environment variables, and
// command-line flags, in that order of precedence (later sources win).
package config

import "time"

// Config holds runtime settings for the auth CLI.
//
// Fields:
//   - BaseURL: root of the remote auth API, including the version prefix.
//   - DatabasePath: SQLite file holding the persisted session state.
//   - RevalidateInterval: how often a held token is re-checked against
//     the server; non-positive disables the check.
//   - SessionTTL: client-side lifetime of non-remembered sessions;
//     non-positive disables the expiry.
//   - LogLevel: slog level value (0 is Info, -4 is Debug).
type Config struct {
	BaseURL            string        `env:"BASE_URL"`
	DatabasePath       string        `env:"DATABASE_PATH"`
	RevalidateInterval time.Duration `env:"REVALIDATE_INTERVAL"`
	SessionTTL         time.Duration `env:"SESSION_TTL"`
	LogLevel           int           `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "https://api.ljthub.com/api/v1"
	c.DatabasePath = "authcli.db"
	c.RevalidateInterval = 5 * time.Minute
	c.SessionTTL = 30 * time.Minute
	c.LogLevel = 0
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if a config file is given), AUTHCLI_-prefixed environment
// variables, and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
