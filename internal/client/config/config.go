package config

// Config holds runtime settings for the restaurant console.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - StateDBPath: sqlite file keeping the persisted session.
//   - LogLevel: debug, info, warn or error.
//
// The state database is created on first use, including its parent directory.
type Config struct {
	ServerEndpointAddr string
	StateDBPath        string
	LogLevel           string
}

// LoadDefaults populates c with sensible defaults: a backend on the loopback
// interface, console.db in the working directory and warn-level logging, so
// log lines stay out of the way of the prompt.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.StateDBPath = "console.db"
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
