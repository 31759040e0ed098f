package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays cfg with AUTHCLI_-prefixed environment variables,
// e.g. AUTHCLI_BASE_URL or AUTHCLI_SESSION_TTL=45m. Variables that are
// not set leave the current values alone.
func parseEnv(cfg *Config) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "AUTHCLI_"}); err != nil {
		panic(err)
	}
}
