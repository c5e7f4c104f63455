package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Network NetworkConfig `mapstructure:"network"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Refresh RefreshConfig `mapstructure:"refresh"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TMDBConfig holds catalog API connection details
type TMDBConfig struct {
	BaseURL     string   `mapstructure:"base_url"`
	BearerToken string   `mapstructure:"bearer_token"`
	Language    string   `mapstructure:"language"`
	Mirrors     []string `mapstructure:"mirrors"`
}

// NetworkConfig controls per-request timeouts and the blocking workarounds
type NetworkConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	BaseDelay     time.Duration `mapstructure:"base_delay"`
	StrategyDelay time.Duration `mapstructure:"strategy_delay"`
	Proxies       []string      `mapstructure:"proxies"`

	// SuspectIndicators are carrier markers matched against the user agent
	// and connection type
	SuspectIndicators []string `mapstructure:"suspect_indicators"`
	// UserAgentHint and ConnectionType describe the local network when no
	// caller supplies hints, as with the CLI
	UserAgentHint  string `mapstructure:"user_agent_hint"`
	ConnectionType string `mapstructure:"connection_type"`
}

// CacheConfig sizes the response cache
type CacheConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RefreshConfig controls auto-refresh of idle recommendations
type RefreshConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	IdleAfter     time.Duration `mapstructure:"idle_after"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
