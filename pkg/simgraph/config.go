package simgraph

import (
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages similarity graph construction using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Samples per point: min(n-1, ceil(sample_constant * ln(n/delta) / epsilon^2)),
	// with delta taken from the KDE structure
	v.SetDefault("algorithm.sample_constant", 1.0)
	v.SetDefault("algorithm.epsilon", 0.5)

	v.SetDefault("performance.num_workers", runtime.NumCPU())

	v.SetDefault("logging.level", "warn")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) SampleConstant() float64 { return c.v.GetFloat64("algorithm.sample_constant") }
func (c *Config) Epsilon() float64        { return c.v.GetFloat64("algorithm.epsilon") }
func (c *Config) NumWorkers() int         { return c.v.GetInt("performance.num_workers") }
func (c *Config) LogLevel() string        { return c.v.GetString("logging.level") }

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
	}).Level(level).With().Timestamp().Str("service", "simgraph").Logger()
}
