package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Map     MapConfig     `yaml:"map" mapstructure:"map"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DatasetConfig configures where parcels are loaded from and how loads are memoized.
type DatasetConfig struct {
	Path         string `yaml:"path" mapstructure:"path"`
	Sheet        string `yaml:"sheet" mapstructure:"sheet"`
	TempDir      string `yaml:"temp_dir" mapstructure:"temp_dir"`
	CacheEntries int    `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTLMins int    `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
}

// ScoringConfig holds the operator-adjustable scoring inputs.
type ScoringConfig struct {
	SocialWeight    float64 `yaml:"social_weight" mapstructure:"social_weight"`
	TechnicalWeight float64 `yaml:"technical_weight" mapstructure:"technical_weight"`
	EconomicWeight  float64 `yaml:"economic_weight" mapstructure:"economic_weight"`
	FairnessWeight  float64 `yaml:"fairness_weight" mapstructure:"fairness_weight"`
	OnlyAvailable   bool    `yaml:"only_available" mapstructure:"only_available"`
	TopN            int     `yaml:"top_n" mapstructure:"top_n"`
}

// MapConfig holds cosmetic map settings.
type MapConfig struct {
	Style     string  `yaml:"style" mapstructure:"style"`
	ColorBy   string  `yaml:"color_by" mapstructure:"color_by"`
	Zoom      int     `yaml:"zoom" mapstructure:"zoom"`
	CenterLat float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLon float64 `yaml:"center_lon" mapstructure:"center_lon"`
}

// FetchConfig configures remote dataset downloads.
type FetchConfig struct {
	UserAgent           string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs         int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries          int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec          float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	BreakerFailures     int     `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerCooldownSecs int     `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// StoreConfig configures the run log backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; values already in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LANDRANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dataset.path", "")
	v.SetDefault("dataset.sheet", "")
	v.SetDefault("dataset.temp_dir", "")
	v.SetDefault("dataset.cache_entries", 8)
	v.SetDefault("dataset.cache_ttl_mins", 60)
	v.SetDefault("scoring.social_weight", 0.4)
	v.SetDefault("scoring.technical_weight", 0.3)
	v.SetDefault("scoring.economic_weight", 0.2)
	v.SetDefault("scoring.fairness_weight", 0.1)
	v.SetDefault("scoring.only_available", true)
	v.SetDefault("scoring.top_n", 10)
	v.SetDefault("map.style", "open-street-map")
	v.SetDefault("map.color_by", "Score")
	v.SetDefault("map.zoom", 10)
	v.SetDefault("map.center_lat", 53.38)
	v.SetDefault("map.center_lon", -1.47)
	v.SetDefault("fetch.user_agent", "landrank/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 5)
	v.SetDefault("fetch.breaker_failures", 3)
	v.SetDefault("fetch.breaker_cooldown_secs", 60)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "landrank.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on.
func (c *Config) Validate(command string) error {
	var errs []string

	switch command {
	case "score", "serve":
		if c.Scoring.TopN < 0 {
			errs = append(errs, "scoring.top_n must be >= 0")
		}
		if c.Dataset.CacheEntries <= 0 {
			errs = append(errs, "dataset.cache_entries must be > 0")
		}
		if command == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
	case "runs":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required (LANDRANK_STORE_DATABASE_URL)")
		}
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
