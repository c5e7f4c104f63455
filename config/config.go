package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MOVIEMATE_TMDB_BEARER_TOKEN
const EnvPrefix = "MOVIEMATE"

const placeholderToken = "your-bearer-token-here"

// Load loads the configuration from file and environment. Without an explicit
// path a missing config file is not an error, so the token can come from the
// environment alone.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("tmdb.bearer_token", EnvPrefix+"_TMDB_BEARER_TOKEN", "TMDB_BEARER_TOKEN"); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".moviemate"))
		}
		v.AddConfigPath("/etc/moviemate/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// TMDB defaults
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.bearer_token", "")
	v.SetDefault("tmdb.language", "en-US")
	v.SetDefault("tmdb.mirrors", []string{
		"https://api.themoviedb.org/3",
		"https://api.tmdb.org/3",
		"https://tmdb-api.vercel.app/3",
	})

	// Network defaults
	v.SetDefault("network.timeout", "8s")
	v.SetDefault("network.max_retries", 5)
	v.SetDefault("network.base_delay", "1s")
	v.SetDefault("network.strategy_delay", "2s")
	v.SetDefault("network.proxies", []string{
		"https://cors-anywhere.herokuapp.com/",
		"https://api.allorigins.win/raw?url=",
		"https://corsproxy.io/?",
	})
	v.SetDefault("network.suspect_indicators", []string{"jio", "reliance", "rjil"})
	v.SetDefault("network.user_agent_hint", "")
	v.SetDefault("network.connection_type", "")

	// Cache defaults
	v.SetDefault("cache.capacity", 50)
	v.SetDefault("cache.ttl", "1m")

	// Refresh defaults
	v.SetDefault("refresh.check_interval", "30s")
	v.SetDefault("refresh.idle_after", "2m")

	// Server defaults
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.request_timeout", "60s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if err := validateURL("tmdb.base_url", cfg.TMDB.BaseURL); err != nil {
		return err
	}
	for _, m := range cfg.TMDB.Mirrors {
		if err := validateURL("tmdb.mirrors", m); err != nil {
			return err
		}
	}

	token := strings.TrimSpace(cfg.TMDB.BearerToken)
	if token == "" || token == placeholderToken {
		return fmt.Errorf("tmdb.bearer_token must be set to a valid API read access token")
	}

	if cfg.Network.Timeout <= 0 {
		return fmt.Errorf("network.timeout must be positive")
	}
	if cfg.Network.MaxRetries < 0 {
		return fmt.Errorf("network.max_retries must not be negative")
	}
	if cfg.Network.BaseDelay < 0 || cfg.Network.StrategyDelay < 0 {
		return fmt.Errorf("network delays must not be negative")
	}

	if cfg.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive")
	}
	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	if cfg.Refresh.CheckInterval <= 0 || cfg.Refresh.IdleAfter <= 0 {
		return fmt.Errorf("refresh.check_interval and refresh.idle_after must be positive")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL: %q", field, raw)
	}
	return nil
}
