// Package config loads steelcast settings from file, .env and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sartorproj/steelcast/cost"
	"github.com/sartorproj/steelcast/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. STEELCAST_SERVER_ADDR.
const EnvPrefix = "STEELCAST"

type Config struct {
	Log       logging.Config  `mapstructure:"log"`
	Data      DataConfig      `mapstructure:"data"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type DataConfig struct {
	// Source is csv or postgres.
	Source       string `mapstructure:"source"`
	CSVPath      string `mapstructure:"csv_path"`
	DateColumn   string `mapstructure:"date_column"`
	ValueColumn  string `mapstructure:"value_column"`
	PostgresDSN  string `mapstructure:"postgres_dsn"`
	SeriesID     string `mapstructure:"series_id"`
	CountryTable string `mapstructure:"country_table"`
}

type DefaultsConfig struct {
	Year       int                `mapstructure:"year"`
	Country    string             `mapstructure:"country"`
	CapacityMW float64            `mapstructure:"capacity_mw"`
	CarbonTax  float64            `mapstructure:"carbon_tax"`
	Base       map[string]float64 `mapstructure:"bf_assumptions"`
	Alt        map[string]float64 `mapstructure:"eaf_assumptions"`
}

type CacheConfig struct {
	// Kind is none, memory or redis.
	Kind        string        `mapstructure:"kind"`
	Size        int           `mapstructure:"size"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisDB     int           `mapstructure:"redis_db"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
	TTL         time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration. path may name a YAML file; when empty the file
// steelcast.yaml is searched in ./configs and the working directory, and
// its absence is not an error. A .env file in the working directory is
// loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("steelcast")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.development", false)

	v.SetDefault("data.source", "csv")
	v.SetDefault("data.csv_path", "data/WPU1012.csv")
	v.SetDefault("data.date_column", "observation_date")
	v.SetDefault("data.value_column", "WPU1012")
	v.SetDefault("data.postgres_dsn", "")
	v.SetDefault("data.series_id", "WPU1012")
	v.SetDefault("data.country_table", "data/country_cost_factors.csv")

	v.SetDefault("defaults.year", 2027)
	v.SetDefault("defaults.country", "US")
	v.SetDefault("defaults.capacity_mw", 100.0)
	v.SetDefault("defaults.carbon_tax", 50.0)
	v.SetDefault("defaults.bf_assumptions", map[string]float64{
		"iron_ore":       130,
		"coking_coal":    280,
		"bf_fluxes":      50,
		"scrap":          375,
		"other_costs_bf": 50,
	})
	v.SetDefault("defaults.eaf_assumptions", map[string]float64{
		"electricity":     0.08,
		"electrode":       2.5,
		"eaf_fluxes":      60,
		"other_costs_eaf": 40,
	})

	v.SetDefault("cache.kind", "memory")
	v.SetDefault("cache.size", 128)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.redis_prefix", "steelcast:forecast:")
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit_rps", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "steelcast")

	v.SetDefault("metrics.enabled", true)
}

// Validate rejects unknown kinds and non-positive sizes.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "csv":
		if c.Data.CSVPath == "" {
			return errors.New("data.csv_path is required for the csv source")
		}
	case "postgres":
		if c.Data.PostgresDSN == "" {
			return errors.New("data.postgres_dsn is required for the postgres source")
		}
		if c.Data.SeriesID == "" {
			return errors.New("data.series_id is required for the postgres source")
		}
	default:
		return fmt.Errorf("unknown data.source %q (want csv or postgres)", c.Data.Source)
	}

	switch c.Cache.Kind {
	case "none":
	case "memory":
		if c.Cache.Size <= 0 {
			return fmt.Errorf("cache.size must be positive, got %d", c.Cache.Size)
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown cache.kind %q (want none, memory or redis)", c.Cache.Kind)
	}

	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst <= 0 {
		return errors.New("server rate limit rps and burst must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive")
	}
	if c.Defaults.CapacityMW < 0 || c.Defaults.CarbonTax < 0 {
		return errors.New("defaults.capacity_mw and defaults.carbon_tax must not be negative")
	}
	return nil
}

// BaseAssumptions returns the configured BF-BOF prices, falling back to
// the built-in defaults for keys that are not set.
func (d DefaultsConfig) BaseAssumptions() cost.BaseAssumptions {
	return cost.DefaultBaseAssumptions().With(d.Base)
}

// AltAssumptions returns the configured Scrap-EAF prices, falling back to
// the built-in defaults for keys that are not set.
func (d DefaultsConfig) AltAssumptions() cost.AltAssumptions {
	return cost.DefaultAltAssumptions().With(d.Alt)
}
