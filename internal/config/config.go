package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	RateLimitMax    int           `mapstructure:"rate_limit_max"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`

	ProximityMeters float64 `mapstructure:"proximity_meters"`

	DirectoryLocalTTL time.Duration `mapstructure:"directory_local_ttl"`
	DirectoryCacheTTL time.Duration `mapstructure:"directory_cache_ttl"`

	CacheBackend string `mapstructure:"cache_backend"`
	CachePath    string `mapstructure:"cache_path"`

	// PayloadKey is a hex-encoded 32-byte key for the payload seal stage.
	// Empty disables sealing; messages then carry the scrubbed text only.
	PayloadKey string `mapstructure:"payload_key"`

	ComplianceLogPath string `mapstructure:"compliance_log_path"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("rate_limit_max", 10)
	v.SetDefault("rate_limit_window", "60s")
	v.SetDefault("proximity_meters", 5000.0)
	v.SetDefault("directory_local_ttl", "5s")
	v.SetDefault("directory_cache_ttl", "60s")
	v.SetDefault("cache_backend", "memory")
	v.SetDefault("cache_path", "./data/cache")
	v.SetDefault("compliance_log_path", "")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
