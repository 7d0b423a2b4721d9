package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	errs "github.com/matzehuels/geonodes/pkg/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvCatalog, EnvStrict, EnvLogLevel, EnvRedisURL, EnvAddr} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), File)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got, want := Path(), filepath.Join("/tmp/xdg", "geonodes", "config.yml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
	if cfg.Server.Addr != DefaultAddr || cfg.Server.Burst != DefaultBurst {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if time.Duration(cfg.Cache.TTL) != DefaultTTL {
		t.Errorf("ttl = %v", time.Duration(cfg.Cache.TTL))
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if code := errs.GetCode(err); code != errs.ErrCodeFileNotFound {
		t.Errorf("code = %q, want FILE_NOT_FOUND", code)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
catalog: /etc/geonodes/catalog.toml
strict: true
log_level: DEBUG
cache:
  redis_url: redis://localhost:6379/1
  ttl: 90m
server:
  addr: 127.0.0.1:9000
  rate: 2.5
  burst: 4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Catalog != "/etc/geonodes/catalog.toml" || !cfg.Strict || cfg.LogLevel != "debug" {
		t.Errorf("top level = %+v", cfg)
	}
	if cfg.Cache.RedisURL != "redis://localhost:6379/1" || time.Duration(cfg.Cache.TTL) != 90*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server != (ServerConfig{Addr: "127.0.0.1:9000", Rate: 2.5, Burst: 4}) {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "strict: false\nserver:\n  addr: :1\n")
	t.Setenv(EnvStrict, "true")
	t.Setenv(EnvAddr, ":2")
	t.Setenv(EnvCatalog, "/tmp/c.toml")
	t.Setenv(EnvRedisURL, "rediss://cache:6380")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Strict || cfg.Server.Addr != ":2" || cfg.Catalog != "/tmp/c.toml" ||
		cfg.Cache.RedisURL != "rediss://cache:6380" || cfg.LogLevel != "warn" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		code errs.Code
	}{
		{"bad yaml", "cache: [", nil, errs.ErrCodeInvalidFormat},
		{"bad duration", "cache:\n  ttl: soon\n", nil, errs.ErrCodeInvalidFormat},
		{"bad log level", "log_level: loud\n", nil, errs.ErrCodeInvalidInput},
		{"bad redis url", "cache:\n  redis_url: http://x\n", nil, errs.ErrCodeInvalidInput},
		{"negative rate", "server:\n  rate: -1\n", nil, errs.ErrCodeInvalidInput},
		{"bad strict env", "", map[string]string{EnvStrict: "maybe"}, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			if code := errs.GetCode(err); code != tt.code {
				t.Errorf("code = %q, want %q (err %v)", code, tt.code, err)
			}
		})
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"~/x.toml", filepath.Join(home, "x.toml")},
		{"~", home},
		{"/abs/x", "/abs/x"},
		{"~user/x", "~user/x"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandTilde(tt.in); got != tt.want {
			t.Errorf("ExpandTilde(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
