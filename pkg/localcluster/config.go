package localcluster

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages local clustering configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.alpha", 0.15)
	v.SetDefault("algorithm.epsilon", 1e-4)
	v.SetDefault("algorithm.lazy", false)

	// Logging parameters
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.progress_interval", 100000)
	v.SetDefault("logging.enable_progress", false)

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) Alpha() float64   { return c.v.GetFloat64("algorithm.alpha") }
func (c *Config) Epsilon() float64 { return c.v.GetFloat64("algorithm.epsilon") }
func (c *Config) Lazy() bool       { return c.v.GetBool("algorithm.lazy") }

func (c *Config) LogLevel() string      { return c.v.GetString("logging.level") }
func (c *Config) ProgressInterval() int { return c.v.GetInt("logging.progress_interval") }
func (c *Config) EnableProgress() bool  { return c.v.GetBool("logging.enable_progress") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "localcluster").Logger()
}
