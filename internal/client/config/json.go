package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/restaurant/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Empty strings
// mean "not set", so a partial file only overrides the keys it names.
type JsonConfig struct {
	ServerEndpointAddr string `json:"server_endpoint_addr"`
	StateDBPath        string `json:"state_db"`
	LogLevel           string `json:"log_level"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies every non-empty field into the provided Config.
//   - Panics on read or unmarshal errors.
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
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

	overlay(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	overlay(&cfg.StateDBPath, jc.StateDBPath)
	overlay(&cfg.LogLevel, jc.LogLevel)
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
