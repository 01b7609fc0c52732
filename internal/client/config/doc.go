// Package config loads runtime configuration for the restaurant console.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-d string   path of the local state database
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
// Keys that are absent or empty leave the earlier value in place:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "state_db": "console.db",
//	  "log_level": "info"
//	}
//
// Primary API
//
//   - type Config                     holds the endpoint, state database and log level
//   - func LoadConfig() *Config       applies defaults, then JSON, then flags
//   - func (*Config) LoadDefaults()   sets the local development defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
