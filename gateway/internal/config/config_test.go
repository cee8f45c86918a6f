package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/cache"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

// rewriteConfig overwrites the file at p in place without O_TRUNC, then
// truncates to the new length. os.WriteFile truncates to zero before
// writing, and the watcher can reload that transient empty file — which
// parses as a valid all-defaults config.
func rewriteConfig(t *testing.T, p, content string) {
	t.Helper()
	f, err := os.OpenFile(p, os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open config: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := f.Truncate(int64(len(content))); err != nil {
		t.Fatalf("truncate config: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Minimal config — empty gateway section; feedd section is ignored.
	p := writeConfig(t, `feedd:
  http_port: 9000
gateway: {}
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Gateway.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Gateway.BroadcastInterval != DefaultBroadcastInterval {
		t.Errorf("broadcast_interval: got %v, want %v",
			cfg.Gateway.BroadcastInterval, DefaultBroadcastInterval)
	}
	if cfg.Gateway.Cache.StaleAfter != cache.DefaultStaleAfter {
		t.Errorf("cache.stale_after: got %v, want %v",
			cfg.Gateway.Cache.StaleAfter, cache.DefaultStaleAfter)
	}
	if cfg.Gateway.Cache.ExpireAfter != cache.DefaultExpireAfter {
		t.Errorf("cache.expire_after: got %v, want %v",
			cfg.Gateway.Cache.ExpireAfter, cache.DefaultExpireAfter)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `gateway:
  http_port: 9091
  broadcast_interval: 2s
  cache:
    stale_after: 10m
    expire_after: 1h
  feeds:
    - key: dashboard
      url: ws://backend:9000/ws/feeds/dashboard
    - key: suction-system
      url: ""
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", cfg.Gateway.HTTPPort)
	}
	if cfg.Gateway.BroadcastInterval != 2*time.Second {
		t.Errorf("broadcast_interval: got %v, want 2s", cfg.Gateway.BroadcastInterval)
	}
	if cfg.Gateway.Cache.StaleAfter != 10*time.Minute {
		t.Errorf("stale_after: got %v, want 10m", cfg.Gateway.Cache.StaleAfter)
	}
	if len(cfg.Gateway.Feeds) != 2 {
		t.Fatalf("feeds: got %d, want 2", len(cfg.Gateway.Feeds))
	}
	if cfg.Gateway.Feeds[1].URL != "" {
		t.Errorf("feeds[1].url: got %q, want empty (disabled)", cfg.Gateway.Feeds[1].URL)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad port", "gateway:\n  http_port: 70000\n"},
		{"zero broadcast", "gateway:\n  broadcast_interval: 0s\n"},
		{"expiry before staleness", "gateway:\n  cache:\n    stale_after: 1h\n    expire_after: 30m\n"},
		{"unknown feed key", "gateway:\n  feeds:\n    - key: ballast\n      url: ws://x\n"},
		{"duplicate feed key", "gateway:\n  feeds:\n    - key: dashboard\n    - key: dashboard\n"},
		{"not yaml", "gateway: [\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := writeConfig(t, tc.yaml)
			if _, err := Load(p); err == nil {
				t.Errorf("Load accepted invalid config:\n%s", tc.yaml)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load on missing file: expected error")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	p := writeConfig(t, "gateway:\n  http_port: 8081\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 1)
	go func() {
		_ = Watch(ctx, p, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher a moment to install before rewriting.
	time.Sleep(50 * time.Millisecond)
	rewriteConfig(t, p, "gateway:\n  http_port: 8082\n")

	select {
	case cfg := <-reloaded:
		if cfg.Gateway.HTTPPort != 8082 {
			t.Errorf("reloaded http_port: got %d, want 8082", cfg.Gateway.HTTPPort)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatch_KeepsPreviousOnBadReload(t *testing.T) {
	p := writeConfig(t, "gateway:\n  http_port: 8081\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 1)
	go func() {
		_ = Watch(ctx, p, func(cfg *Config) { reloaded <- cfg })
	}()

	time.Sleep(50 * time.Millisecond)
	rewriteConfig(t, p, "gateway: [broken\n")

	select {
	case <-reloaded:
		t.Fatal("onChange fired for an invalid config")
	case <-time.After(300 * time.Millisecond):
		// Expected: bad reload is dropped.
	}
}
