// Package config loads runtime configuration for the ilmcli client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables (see parseEnv), including a .env file in the
//     working directory loaded via godotenv.
//
// Command-line flags beyond -c/-config are owned by the cobra commands, which
// overlay the loaded Config with whatever the user passed.
//
// # JSON schema
//
// Intervals can be either strings like "60s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "http://127.0.0.1:8000",
//	  "usage_poll_interval": "60s",
//	  "token_file": "/home/user/.config/ilmcli/token",
//	  "log_file": "/tmp/ilmcli.log",
//	  "language": "en",
//	  "mode": "standard"
//	}
//
// # Environment variables
//
//	ILM_SERVER_URL           backend base URL
//	ILM_USAGE_POLL_INTERVAL  usage poll interval, Go duration syntax
//	ILM_TOKEN_FILE           token file path
//	ILM_LOG_FILE             log file path (empty disables file logging)
//	ILM_LANGUAGE             answer language (en, bn)
//	ILM_MODE                 research mode (standard, comparative)
package config
