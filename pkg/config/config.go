// Package config loads the HTTP server settings from defaults, an optional
// file and GRAPH_APPROX_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "GRAPH_APPROX"

type Config struct {
	Server ServerConfig
}

type ServerConfig struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// RateLimit is in requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int
	// MaxBodyBytes caps every request body; MaxVertices caps uploaded graphs.
	MaxBodyBytes int64
	MaxVertices  int
}

// Load reads the server configuration. An empty path skips the file;
// environment variables such as GRAPH_APPROX_SERVER_ADDRESS win over both.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.rate_burst", 50)
	v.SetDefault("server.max_body_bytes", 100<<20)
	v.SetDefault("server.max_vertices", 5_000_000)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			RateLimit:       v.GetFloat64("server.rate_limit"),
			RateBurst:       v.GetInt("server.rate_burst"),
			MaxBodyBytes:    v.GetInt64("server.max_body_bytes"),
			MaxVertices:     v.GetInt("server.max_vertices"),
		},
	}
	if cfg.Server.Address == "" {
		return nil, fmt.Errorf("server.address must not be empty")
	}
	if cfg.Server.RateLimit < 0 || cfg.Server.RateBurst < 1 {
		return nil, fmt.Errorf("server.rate_limit must be non-negative and server.rate_burst positive")
	}
	if cfg.Server.MaxBodyBytes < 1 || cfg.Server.MaxVertices < 1 {
		return nil, fmt.Errorf("server.max_body_bytes and server.max_vertices must be positive")
	}
	return cfg, nil
}
