package clustering

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/gilchrisn/graph-approx-engine/pkg/kde"
	"github.com/gilchrisn/graph-approx-engine/pkg/localcluster"
	"github.com/gilchrisn/graph-approx-engine/pkg/simgraph"
)

// Config manages point clustering configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Method parameters
	v.SetDefault("clustering.method", MethodLouvain)
	v.SetDefault("clustering.k", 2)
	v.SetDefault("clustering.seed_point", 0)

	// Similarity graph parameters
	v.SetDefault("graph.epsilon", 0.5)
	v.SetDefault("graph.delta", 0.1)
	v.SetDefault("graph.sample_constant", 1.0)

	// Local clustering parameters
	v.SetDefault("local.alpha", 0.15)
	v.SetDefault("local.epsilon", 1e-6)

	// Logging parameters
	v.SetDefault("logging.level", "warn")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) Method() string { return c.v.GetString("clustering.method") }
func (c *Config) K() int         { return c.v.GetInt("clustering.k") }
func (c *Config) SeedPoint() int { return c.v.GetInt("clustering.seed_point") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// KDEConfig derives the KDE configuration used for the similarity graph.
func (c *Config) KDEConfig() *kde.Config {
	config := kde.NewConfig()
	config.Set("algorithm.epsilon", c.v.GetFloat64("graph.epsilon"))
	config.Set("algorithm.delta", c.v.GetFloat64("graph.delta"))
	config.Set("logging.level", c.LogLevel())
	return config
}

// SimilarityConfig derives the similarity graph sampling configuration.
func (c *Config) SimilarityConfig() *simgraph.Config {
	config := simgraph.NewConfig()
	config.Set("algorithm.epsilon", c.v.GetFloat64("graph.epsilon"))
	config.Set("algorithm.sample_constant", c.v.GetFloat64("graph.sample_constant"))
	config.Set("logging.level", c.LogLevel())
	return config
}

// LocalConfig derives the local clustering configuration.
func (c *Config) LocalConfig() *localcluster.Config {
	config := localcluster.NewConfig()
	config.Set("algorithm.alpha", c.v.GetFloat64("local.alpha"))
	config.Set("algorithm.epsilon", c.v.GetFloat64("local.epsilon"))
	config.Set("logging.level", c.LogLevel())
	return config
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
	}).Level(level).With().Timestamp().Str("service", "clustering").Logger()
}
