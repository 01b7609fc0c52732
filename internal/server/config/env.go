package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvGRPCAddr          = "RESTAURANT_GRPC_ADDR"
	EnvMetricsAddr       = "RESTAURANT_METRICS_ADDR"
	EnvDatabaseDSN       = "RESTAURANT_DATABASE_DSN"
	EnvSecretKey         = "RESTAURANT_SECRET_KEY"
	EnvAccessTokenTTL    = "RESTAURANT_ACCESS_TOKEN_TTL"
	EnvRefreshTokenTTL   = "RESTAURANT_REFRESH_TOKEN_TTL"
	EnvChangeFeed        = "RESTAURANT_CHANGEFEED"
	EnvRedisAddr         = "RESTAURANT_REDIS_ADDR"
	EnvMaxSignInAttempts = "RESTAURANT_MAX_SIGNIN_ATTEMPTS"
	EnvLockout           = "RESTAURANT_LOCKOUT"
	EnvLogLevel          = "RESTAURANT_LOG_LEVEL"
)

// parseEnv loads an optional .env file from the working directory and then
// overlays Config with the RESTAURANT_* variables that are set. Variables
// already present in the environment take precedence over the file.
func parseEnv(cfg *Config) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "config: .env ignored: %v\n", err)
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		panic(err)
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str(EnvGRPCAddr, &cfg.EndpointAddrGRPC)
	str(EnvMetricsAddr, &cfg.MetricsAddr)
	str(EnvDatabaseDSN, &cfg.DatabaseDSN)
	str(EnvSecretKey, &cfg.SecretKey)
	str(EnvChangeFeed, &cfg.ChangeFeedDriver)
	str(EnvRedisAddr, &cfg.RedisAddr)
	str(EnvLogLevel, &cfg.LogLevel)

	if err := dur(EnvAccessTokenTTL, &cfg.AccessTokenValidityDuration); err != nil {
		return err
	}
	if err := dur(EnvRefreshTokenTTL, &cfg.RefreshTokenValidityDuration); err != nil {
		return err
	}
	if err := dur(EnvLockout, &cfg.LockoutDuration); err != nil {
		return err
	}

	if v, ok := lookup(EnvMaxSignInAttempts); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxSignInAttempts, err)
		}
		cfg.MaxSignInAttempts = n
	}
	return nil
}
