package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/catalog-client/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides: CATALOG_REDIS_ADDR etc.
const envPrefix = "CATALOG"

// Config is the proxy configuration, from flags and CATALOG_* variables.
type Config struct {
	Addr              string        `mapstructure:"addr"`
	BaseURL           string        `mapstructure:"base-url"`
	UserAgent         string        `mapstructure:"user-agent"`
	RedisAddr         string        `mapstructure:"redis-addr"`
	RequestsPerSecond float64       `mapstructure:"rps"`
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"max-retries"`
	CacheTTL          time.Duration `mapstructure:"cache-ttl"`
	RequestTimeout    time.Duration `mapstructure:"request-timeout"`
	LogLevel          string        `mapstructure:"log-level"`
	LogPretty         bool          `mapstructure:"log-pretty"`
}

func registerFlags(cmd *cobra.Command) {
	defaults := client.DefaultConfig(nil, "")

	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.String("base-url", defaults.BaseURL, "catalog web service root")
	flags.String("user-agent", "catalog-proxy/0.1.0", "User-Agent sent to the catalog service (app/version (contact))")
	flags.String("redis-addr", "", "redis address for the page cache and shared rate limit state; empty disables both")
	flags.Float64("rps", defaults.RequestsPerSecond, "requests per second sent to the catalog service")
	flags.Int("burst", defaults.Burst, "token bucket burst")
	flags.Int("max-retries", defaults.MaxRetries, "retries for server, rate limit and network failures")
	flags.Duration("cache-ttl", defaults.CacheTTL, "cache lifetime for responses without freshness headers")
	flags.Duration("request-timeout", 2*time.Minute, "deadline for one proxied request")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.Bool("log-pretty", false, "human-readable console logs")
}

// loadConfig merges flags and environment. Environment wins over flag
// defaults; explicitly set flags win over environment.
func loadConfig(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.UserAgent == "" {
		return Config{}, fmt.Errorf("user-agent is required")
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("request-timeout must be > 0")
	}
	return cfg, nil
}

// clientConfig maps the proxy configuration onto the transport's.
func (c Config) clientConfig() client.Config {
	cfg := client.DefaultConfig(nil, c.UserAgent)
	cfg.BaseURL = c.BaseURL
	cfg.RequestsPerSecond = c.RequestsPerSecond
	cfg.Burst = c.Burst
	cfg.MaxRetries = c.MaxRetries
	cfg.CacheTTL = c.CacheTTL
	return cfg
}
