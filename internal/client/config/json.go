package config

import (
	"encoding/json"
	"os"
	"time"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// duration so JSON can specify intervals either as strings like "60s" or as
// integer nanoseconds. After parsing, set values are copied into the runtime
// Config.
type JsonConfig struct {
	ServerBaseURL     string    `json:"server_base_url"`
	UsagePollInterval *duration `json:"usage_poll_interval"`
	TokenFile         string    `json:"token_file"`
	LogFile           string    `json:"log_file"`
	Language          string    `json:"language"`
	Mode              string    `json:"mode"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config flags; when neither is given, no
// JSON is loaded. Fields absent from the file keep their current values.
// Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := jsonConfigPath()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.UsagePollInterval != nil {
		cfg.UsagePollInterval = time.Duration(*jc.UsagePollInterval)
	}
	if jc.TokenFile != "" {
		cfg.TokenFile = jc.TokenFile
	}
	if jc.LogFile != "" {
		cfg.LogFile = jc.LogFile
	}
	if jc.Language != "" {
		cfg.Language = jc.Language
	}
	if jc.Mode != "" {
		cfg.Mode = jc.Mode
	}
}
