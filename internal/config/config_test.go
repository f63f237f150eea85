package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 3100, cfg.Server.Port)
	require.Equal(t, "0.0.0.0:3100", cfg.Server.Addr())
	require.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	require.Equal(t, 5, cfg.Extract.MaxURLs)
	require.Equal(t, 500*time.Millisecond, cfg.Extract.PolitenessDelay)
	require.Equal(t, 2, cfg.Extract.MaxRetries)
	require.Equal(t, time.Second, cfg.Extract.RetryBaseDelay)
	require.Empty(t, cfg.Fetcher.UserAgents)
	require.Equal(t, 250*time.Millisecond, cfg.Progress.MaxBatchWait)
	require.True(t, cfg.Logging.Development)
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  static_dir: ./public
extract:
  max_urls: 10
  politeness_delay: 2s
  max_retries: 4
  retry_base_delay: 250ms
fetcher:
  user_agents: ["agent-a", "agent-b"]
  host_rps: 0.5
logging:
  development: false
  level: debug
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.StaticDir != "./public" {
		t.Fatalf("expected server overrides, got %+v", cfg.Server)
	}
	require.Equal(t, 10, cfg.Extract.MaxURLs)
	require.Equal(t, 2*time.Second, cfg.Extract.PolitenessDelay)
	require.Equal(t, 4, cfg.Extract.MaxRetries)
	require.Equal(t, 250*time.Millisecond, cfg.Extract.RetryBaseDelay)
	require.Equal(t, []string{"agent-a", "agent-b"}, cfg.Fetcher.UserAgents)
	require.InDelta(t, 0.5, cfg.Fetcher.HostRPS, 1e-9)
	require.False(t, cfg.Logging.Development)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "4200")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("CONTACTS_EXTRACT_MAX_URLS", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 4200, cfg.Server.Port)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 7, cfg.Extract.MaxURLs)
}

func TestLoadPrefixedEnvWinsOverAlias(t *testing.T) {
	t.Setenv("PORT", "4200")
	t.Setenv("CONTACTS_SERVER_PORT", "4300")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 4300, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		Server:  ServerConfig{Port: 3100, RequestTimeout: time.Second, ShutdownTimeout: time.Second},
		Extract: ExtractConfig{MaxURLs: 5},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "port", mutate: func(c *Config) { c.Server.Port = 0 }, want: "server.port"},
		{name: "max urls", mutate: func(c *Config) { c.Extract.MaxURLs = 0 }, want: "extract.max_urls"},
		{name: "retries", mutate: func(c *Config) { c.Extract.MaxRetries = -1 }, want: "extract.max_retries"},
		{name: "delays", mutate: func(c *Config) { c.Extract.RetryBaseDelay = -time.Second }, want: "extract delays"},
		{name: "blank agent", mutate: func(c *Config) { c.Fetcher.UserAgents = []string{" "} }, want: "user_agents[0]"},
		{name: "rps", mutate: func(c *Config) { c.Fetcher.HostRPS = -1 }, want: "host_rps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
