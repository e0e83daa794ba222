package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:           "8081",
		DataBackend:    "memory",
		AMQPExchange:   "housetab",
		AMQPQueue:      "backup_transactions",
		SyncBatchSize:  10,
		SyncInterval:   30 * time.Second,
		ParseCacheSize: 64,
		ParseCacheTTL:  10 * time.Minute,
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8081" {
		t.Fatalf("port default = %s", cfg.Port)
	}
	if cfg.DataBackend != "sqlite" {
		t.Fatalf("backend default = %s", cfg.DataBackend)
	}
	if cfg.GeminiModel != "models/gemini-2.5-flash" {
		t.Fatalf("model default = %s", cfg.GeminiModel)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("SYNC_INTERVAL", "2m")

	cfg := Load()
	if cfg.Port != "9000" || cfg.DataBackend != "file" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.SyncInterval != 2*time.Minute {
		t.Fatalf("interval = %v", cfg.SyncInterval)
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(c *Config)
		want string
	}{
		{"bad port", func(c *Config) { c.Port = "not-a-port" }, "invalid port"},
		{"port range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"bad backend", func(c *Config) { c.DataBackend = "postgres" }, "invalid data backend"},
		{"sqlite path", func(c *Config) { c.DataBackend = "sqlite"; c.SQLiteDBPath = "" }, "SQLite database path"},
		{"file path", func(c *Config) { c.DataBackend = "file"; c.LedgerFilePath = "" }, "ledger file path"},
		{"amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "invalid AMQP URL scheme"},
		{"amqp queue", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPQueue = "" }, "queue name"},
		{"batch size", func(c *Config) { c.SyncBatchSize = 0 }, "sync batch size"},
		{"interval", func(c *Config) { c.SyncInterval = 100 * time.Millisecond }, "sync interval"},
		{"cache ttl", func(c *Config) { c.ParseCacheTTL = 0 }, "parse cache TTL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mut(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
