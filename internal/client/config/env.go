package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the environment. A .env file in
// the working directory is loaded first; real environment variables win over
// it (godotenv never overrides existing variables). Unset variables keep the
// current values; a malformed interval is ignored rather than fatal.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("ILM_SERVER_URL"); v != "" {
		cfg.ServerBaseURL = v
	}
	if v := os.Getenv("ILM_USAGE_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.UsagePollInterval = d
		}
	}
	if v := os.Getenv("ILM_TOKEN_FILE"); v != "" {
		cfg.TokenFile = v
	}
	if v := os.Getenv("ILM_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("ILM_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("ILM_MODE"); v != "" {
		cfg.Mode = v
	}
}
