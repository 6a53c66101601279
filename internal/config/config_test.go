package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 4000 || cfg.DB.Driver != "postgres" || !cfg.Limiter.Enabled || cfg.Log.Format != "text" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadLayering(t *testing.T) {
	path := writeFile(t, `
port: 5000
env: staging
db:
  driver: sqlite
  dsn: file:catalog.db
  maxIdleTime: 5m
limiter:
  enabled: true
  rps: 10
  burst: 20
  window: 30s
log:
  level: debug
  format: json
`)

	cfg, err := Load([]string{"-config", path}, envMap(nil))
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.Port != 5000 || cfg.Env != "staging" || cfg.DB.Driver != "sqlite" || cfg.DB.DSN != "file:catalog.db" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.DB.MaxIdleTime != 5*time.Minute || cfg.Limiter.Window != 30*time.Second {
		t.Fatalf("durations not parsed: %+v", cfg)
	}
	if cfg.DB.MaxOpenConns != 25 {
		t.Fatalf("unset keys should keep defaults, got %d", cfg.DB.MaxOpenConns)
	}

	cfg, err = Load([]string{"-config", path}, envMap(map[string]string{
		"DATABASE_URL": "file:env.db",
		"LOG_LEVEL":    "WARN",
	}))
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.DB.DSN != "file:env.db" || cfg.Log.Level != "warn" {
		t.Fatalf("env should override file: %+v", cfg)
	}

	cfg, err = Load([]string{"-config", path, "-db-dsn", "file:flag.db", "-port", "6000"}, envMap(map[string]string{
		"DATABASE_URL": "file:env.db",
	}))
	if err != nil {
		t.Fatalf("load flags: %v", err)
	}
	if cfg.DB.DSN != "file:flag.db" || cfg.Port != 6000 {
		t.Fatalf("explicit flags should win: %+v", cfg)
	}
	if cfg.Env != "staging" {
		t.Fatalf("flag defaults must not override the file, got env %q", cfg.Env)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string][]string{
		"missing file":   {"-config", filepath.Join(t.TempDir(), "nope.yaml")},
		"bad driver":     {"-db-driver", "mysql"},
		"bad port":       {"-port", "70000"},
		"bad log format": {"-log-format", "xml"},
		"bad limiter":    {"-limiter-rps", "0"},
		"unknown flag":   {"-verbose"},
	}
	for name, args := range cases {
		if _, err := Load(args, envMap(nil)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	path := writeFile(t, "port: [not, a, number]")
	if _, err := Load([]string{"-config", path}, envMap(nil)); err == nil {
		t.Errorf("expected YAML error")
	}
}

func TestLimiterMayBeDisabled(t *testing.T) {
	cfg, err := Load([]string{"-limiter-enabled=false", "-limiter-rps", "0"}, envMap(nil))
	if err != nil {
		t.Fatalf("disabled limiter settings should not be validated: %v", err)
	}
	if cfg.Limiter.Enabled {
		t.Fatalf("expected limiter disabled")
	}
}
