package config

import "time"

// Config holds runtime settings for the ilmcli client.
//
// Fields:
//   - ServerBaseURL: base URL of the IlmAI backend, no trailing slash.
//   - UsagePollInterval: how often the client refetches the usage snapshot.
//   - TokenFile: where the bearer token is persisted; empty means the
//     platform default under the user config dir.
//   - LogFile: debug log destination; empty disables file logging entirely
//     (the TUI owns stdout, so there is no console fallback).
//   - Language: default answer language (en, bn).
//   - Mode: default research mode (standard, comparative).
type Config struct {
	ServerBaseURL     string
	UsagePollInterval time.Duration
	TokenFile         string
	LogFile           string
	Language          string
	Mode              string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8000"
	c.UsagePollInterval = 60 * time.Second
	c.Language = "en"
	c.Mode = "standard"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and environment variables (if set). Later sources take
// precedence over earlier ones. Command-line flags overlay on top of the
// result in the cobra layer.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	return cfg
}
