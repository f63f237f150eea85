// Package config loads and validates service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Progress ProgressConfig `mapstructure:"progress"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	StaticDir       string        `mapstructure:"static_dir"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ExtractConfig governs job size and the per-URL retry loop.
type ExtractConfig struct {
	MaxURLs         int           `mapstructure:"max_urls"`
	PolitenessDelay time.Duration `mapstructure:"politeness_delay"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay"`
}

// FetcherConfig configures outbound page retrieval.
type FetcherConfig struct {
	UserAgents   []string `mapstructure:"user_agents"`
	MaxBodyBytes int      `mapstructure:"max_body_bytes"`
	HostRPS      float64  `mapstructure:"host_rps"`
	HostBurst    int      `mapstructure:"host_burst"`

	// BlockedDomains lists hosts never fetched; "*.example.com" also blocks subdomains.
	BlockedDomains []string `mapstructure:"blocked_domains"`
}

// ProgressConfig sizes the progress event hub.
type ProgressConfig struct {
	BufferSize     int           `mapstructure:"buffer_size"`
	MaxBatchEvents int           `mapstructure:"max_batch_events"`
	MaxBatchWait   time.Duration `mapstructure:"max_batch_wait"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from defaults, an optional file, and the environment.
// Environment keys use the CONTACTS_ prefix; PORT and HOST are also honored.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CONTACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "CONTACTS_SERVER_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("bind port env: %w", err)
	}
	if err := v.BindEnv("server.host", "CONTACTS_SERVER_HOST", "HOST"); err != nil {
		return Config{}, fmt.Errorf("bind host env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3100)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("extract.max_urls", 5)
	v.SetDefault("extract.politeness_delay", "500ms")
	v.SetDefault("extract.max_retries", 2)
	v.SetDefault("extract.retry_base_delay", "1s")
	v.SetDefault("fetcher.user_agents", []string{})
	v.SetDefault("fetcher.max_body_bytes", 5<<20)
	v.SetDefault("fetcher.host_rps", 2.0)
	v.SetDefault("fetcher.host_burst", 2)
	v.SetDefault("fetcher.blocked_domains", []string{})
	v.SetDefault("progress.buffer_size", 1024)
	v.SetDefault("progress.max_batch_events", 100)
	v.SetDefault("progress.max_batch_wait", "250ms")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("server.port must be in 1..65535"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be > 0"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be > 0"))
	}
	if c.Extract.MaxURLs <= 0 {
		errs = append(errs, errors.New("extract.max_urls must be > 0"))
	}
	if c.Extract.MaxRetries < 0 {
		errs = append(errs, errors.New("extract.max_retries must be >= 0"))
	}
	if c.Extract.PolitenessDelay < 0 || c.Extract.RetryBaseDelay < 0 {
		errs = append(errs, errors.New("extract delays must be >= 0"))
	}
	if c.Fetcher.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("fetcher.max_body_bytes must be >= 0"))
	}
	if c.Fetcher.HostRPS < 0 {
		errs = append(errs, errors.New("fetcher.host_rps must be >= 0"))
	}
	for i, ua := range c.Fetcher.UserAgents {
		if strings.TrimSpace(ua) == "" {
			errs = append(errs, fmt.Errorf("fetcher.user_agents[%d] must not be blank", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
