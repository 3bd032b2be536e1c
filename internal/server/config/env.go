package config

import (
	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment variable read by the server.
const EnvPrefix = "VAULTKEEPER_"

// parseEnv overlays VAULTKEEPER_* variables onto config. Unset variables
// leave the current value untouched. A malformed value panics.
func parseEnv(config *Config) {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
