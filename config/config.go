// Package config loads engine configuration from an optional config file
// and OPPHUB_* environment variables. Missing provider credentials are
// not an error: the matching feature simply reports itself disabled.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the discovery engine.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	General   GeneralConfig   `mapstructure:"general"`
	Expansion ExpansionConfig `mapstructure:"expansion"`
	Search    SearchConfig    `mapstructure:"search"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// GeneralConfig contains application-wide settings.
type GeneralConfig struct {
	Debug            bool          `mapstructure:"debug"`
	LogLevel         string        `mapstructure:"log_level"`
	DiscoveryTimeout time.Duration `mapstructure:"discovery_timeout"`
}

// ExpansionConfig configures the optional LLM query-expansion service.
type ExpansionConfig struct {
	Provider   string        `mapstructure:"provider"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxQueries int           `mapstructure:"max_queries"`
}

// Enabled reports whether query expansion is configured.
func (e ExpansionConfig) Enabled() bool {
	return strings.TrimSpace(e.APIKey) != ""
}

// SearchConfig configures the web search provider fan-out.
type SearchConfig struct {
	Provider        string        `mapstructure:"provider"`
	SerperAPIKey    string        `mapstructure:"serper_api_key"`
	BraveAPIKey     string        `mapstructure:"brave_api_key"`
	GoogleAPIKey    string        `mapstructure:"google_api_key"`
	GoogleCX        string        `mapstructure:"google_cx"`
	ResultsPerQuery int           `mapstructure:"results_per_query"`
	MaxQueries      int           `mapstructure:"max_queries"`
	MaxResults      int           `mapstructure:"max_results"`
	Workers         int           `mapstructure:"workers"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	AllowedDomains  []string      `mapstructure:"allowed_domains"`
}

// Enabled reports whether a search provider is configured with credentials.
func (s SearchConfig) Enabled() bool {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "serper":
		return strings.TrimSpace(s.SerperAPIKey) != ""
	case "brave":
		return strings.TrimSpace(s.BraveAPIKey) != ""
	case "googlecse":
		return strings.TrimSpace(s.GoogleAPIKey) != "" && strings.TrimSpace(s.GoogleCX) != ""
	default:
		return false
	}
}

// ProviderName returns the normalized active provider name, or "" when the
// feature is disabled.
func (s SearchConfig) ProviderName() string {
	if !s.Enabled() {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(s.Provider))
}

// Load reads configuration from the given file (optional; "" searches the
// usual locations) plus environment overrides, then clamps values to sane
// ranges. A missing config file is fine; only a malformed one errors.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.address", ":8090")
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.discovery_timeout", 10*time.Second)
	v.SetDefault("expansion.provider", "groq")
	v.SetDefault("expansion.model", "llama-3.1-8b-instant")
	v.SetDefault("expansion.timeout", 8*time.Second)
	v.SetDefault("expansion.max_queries", 6)
	v.SetDefault("search.results_per_query", 8)
	v.SetDefault("search.max_queries", 3)
	v.SetDefault("search.max_results", 20)
	v.SetDefault("search.workers", 4)
	v.SetDefault("search.query_timeout", 6*time.Second)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("OPPHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.clamp()
	return &cfg, nil
}

func (c *Config) clamp() {
	if c.General.DiscoveryTimeout < time.Second {
		c.General.DiscoveryTimeout = 10 * time.Second
	}
	if c.Expansion.Timeout <= 0 {
		c.Expansion.Timeout = 8 * time.Second
	}
	c.Expansion.MaxQueries = clampInt(c.Expansion.MaxQueries, 1, 12, 6)
	c.Search.ResultsPerQuery = clampInt(c.Search.ResultsPerQuery, 1, 20, 8)
	c.Search.MaxQueries = clampInt(c.Search.MaxQueries, 1, 8, 3)
	c.Search.MaxResults = clampInt(c.Search.MaxResults, 1, 50, 20)
	c.Search.Workers = clampInt(c.Search.Workers, 1, 8, 4)
	if c.Search.QueryTimeout <= 0 || c.Search.QueryTimeout > c.General.DiscoveryTimeout {
		c.Search.QueryTimeout = c.General.DiscoveryTimeout
	}
}

func clampInt(v, lo, hi, def int) int {
	if v == 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
