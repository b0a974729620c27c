package kde

import (
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages KDE construction parameters using Viper. Every constant
// that shapes the level plan is a key here so it can be tuned per data set.
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Accuracy targets
	v.SetDefault("algorithm.epsilon", 0.1)
	v.SetDefault("algorithm.delta", 0.1)
	v.SetDefault("algorithm.min_density", 0.0) // 0 means 1/n
	v.SetDefault("algorithm.max_levels", 12)

	// Sampling and repetition constants
	v.SetDefault("algorithm.sample_constant", 1.0)
	v.SetDefault("algorithm.instance_constant", 1.0)
	v.SetDefault("algorithm.max_instances", 15)
	v.SetDefault("algorithm.mom_groups", 3)

	// Hash table shape
	v.SetDefault("lsh.bucket_ratio", 4.0)
	v.SetDefault("lsh.far_ratio", 2.0)
	v.SetDefault("lsh.recall", 0.9)
	v.SetDefault("lsh.max_hashes", 16)
	v.SetDefault("lsh.max_tables", 32)

	// Performance parameters
	v.SetDefault("performance.num_workers", runtime.NumCPU())

	// Logging parameters
	v.SetDefault("logging.level", "warn")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) Epsilon() float64    { return c.v.GetFloat64("algorithm.epsilon") }
func (c *Config) Delta() float64      { return c.v.GetFloat64("algorithm.delta") }
func (c *Config) MinDensity() float64 { return c.v.GetFloat64("algorithm.min_density") }
func (c *Config) MaxLevels() int      { return c.v.GetInt("algorithm.max_levels") }

func (c *Config) SampleConstant() float64   { return c.v.GetFloat64("algorithm.sample_constant") }
func (c *Config) InstanceConstant() float64 { return c.v.GetFloat64("algorithm.instance_constant") }
func (c *Config) MaxInstances() int         { return c.v.GetInt("algorithm.max_instances") }
func (c *Config) MedianOfMeansGroups() int  { return c.v.GetInt("algorithm.mom_groups") }

func (c *Config) BucketRatio() float64 { return c.v.GetFloat64("lsh.bucket_ratio") }
func (c *Config) FarRatio() float64    { return c.v.GetFloat64("lsh.far_ratio") }
func (c *Config) Recall() float64      { return c.v.GetFloat64("lsh.recall") }
func (c *Config) MaxHashes() int       { return c.v.GetInt("lsh.max_hashes") }
func (c *Config) MaxTables() int       { return c.v.GetInt("lsh.max_tables") }

func (c *Config) NumWorkers() int { return c.v.GetInt("performance.num_workers") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

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
	}).Level(level).With().Timestamp().Str("service", "kde").Logger()
}
