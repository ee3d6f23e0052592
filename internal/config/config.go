package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Quote     QuoteConfig     `mapstructure:"quote"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type BroadcastConfig struct {
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	MarketHoursOnly bool          `mapstructure:"market_hours_only"`
	Timezone        string        `mapstructure:"timezone"`
}

type QuoteConfig struct {
	// Simulate swaps the upstream provider for the built-in random
	// walk source; BaseURL and APIKey are then unused.
	Simulate      bool          `mapstructure:"simulate"`
	SimSeed       int64         `mapstructure:"sim_seed"`
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond int           `mapstructure:"rate_per_second"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

type RedisConfig struct {
	// Addr empty disables the quote cache.
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", "8090")
	v.SetDefault("broadcast.tick_interval", "30s")
	v.SetDefault("broadcast.fetch_timeout", "5s")
	v.SetDefault("broadcast.market_hours_only", false)
	v.SetDefault("broadcast.timezone", "America/New_York")
	v.SetDefault("quote.simulate", false)
	v.SetDefault("quote.sim_seed", 1)
	v.SetDefault("quote.base_url", "https://api.stockleague.dev")
	v.SetDefault("quote.timeout", "5s")
	v.SetDefault("quote.rate_per_second", 10)
	v.SetDefault("quote.cache_ttl", "30s")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("STOCKLEAGUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("quote.api_key", "STOCKLEAGUE_QUOTE_API_KEY")
	_ = v.BindEnv("database.url", "STOCKLEAGUE_DATABASE_URL")
	_ = v.BindEnv("redis.addr", "STOCKLEAGUE_REDIS_ADDR")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Broadcast.TickInterval <= 0 {
		return fmt.Errorf("broadcast.tick_interval must be positive")
	}
	if c.Broadcast.FetchTimeout <= 0 {
		return fmt.Errorf("broadcast.fetch_timeout must be positive")
	}
	if !c.Quote.Simulate {
		if c.Quote.BaseURL == "" {
			return fmt.Errorf("quote.base_url is required unless quote.simulate is set")
		}
		if c.Quote.APIKey == "" {
			return fmt.Errorf("quote.api_key is required unless quote.simulate is set (set STOCKLEAGUE_QUOTE_API_KEY env var)")
		}
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required (set STOCKLEAGUE_DATABASE_URL env var)")
	}
	if c.Quote.RatePerSecond < 1 {
		return fmt.Errorf("quote.rate_per_second must be >= 1")
	}
	return nil
}
