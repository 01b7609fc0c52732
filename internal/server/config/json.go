package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/restaurant/internal/flagx"
	"github.com/dmitrijs2005/restaurant/internal/timex"
)

// JsonConfig is the JSON file form of Config. Durations accept "15m" style
// strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	MetricsAddr                  string         `json:"metrics_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	ChangeFeedDriver             string         `json:"changefeed_driver"`
	RedisAddr                    string         `json:"redis_addr"`
	MaxSignInAttempts            int            `json:"max_signin_attempts"`
	LockoutDuration              timex.Duration `json:"lockout_duration"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson overlays Config with the values present in the JSON file named
// by -c or -config. Zero values leave the current setting alone. It panics
// when the file cannot be read or parsed.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.ChangeFeedDriver, c.ChangeFeedDriver)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.LockoutDuration.Duration > 0 {
		config.LockoutDuration = c.LockoutDuration.Duration
	}
	if c.MaxSignInAttempts > 0 {
		config.MaxSignInAttempts = c.MaxSignInAttempts
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
