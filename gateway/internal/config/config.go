package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/cache"
	"github.com/Kush2408/dredger-swiper-v4/pkg/feedkey"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort          = 8080
	DefaultBroadcastInterval = 5 * time.Second
)

// Config holds the gateway configuration parsed from the `gateway:`
// section of config.yaml. The `feedd:` key in the same file is ignored.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
}

// GatewayConfig holds all gateway-side settings.
type GatewayConfig struct {
	// HTTPPort is the port the REST API, WebSocket hub, and /metrics
	// endpoint listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// BroadcastInterval controls how often the hub pushes the merged feed
	// views to connected dashboard clients (default 5s).
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// Cache controls snapshot staleness and expiry.
	Cache CacheConfig `yaml:"cache"`

	// Feeds is the list of upstream feeds to subscribe to.
	Feeds []Feed `yaml:"feeds"`
}

// CacheConfig controls the snapshot cache thresholds. Staleness must be
// shorter than expiry so the stale-but-usable window exists.
type CacheConfig struct {
	// StaleAfter is how long after capture an entry is flagged stale but
	// still served (default 30m).
	StaleAfter time.Duration `yaml:"stale_after"`

	// ExpireAfter is how long after capture an entry is deleted on read
	// and treated as absent (default 2h).
	ExpireAfter time.Duration `yaml:"expire_after"`
}

// Feed describes one upstream feed subscription.
type Feed struct {
	// Key is one of the published feed keys (see the feed package).
	Key string `yaml:"key"`

	// URL is the WebSocket endpoint of the backend feed. Empty disables
	// the feed: the gateway serves cache only and never connects.
	URL string `yaml:"url"`
}

// Load reads and parses the config file at path, returning the gateway
// configuration. Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gateway config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("gateway config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("gateway config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Gateway: GatewayConfig{
			HTTPPort:          DefaultHTTPPort,
			BroadcastInterval: DefaultBroadcastInterval,
			Cache: CacheConfig{
				StaleAfter:  cache.DefaultStaleAfter,
				ExpireAfter: cache.DefaultExpireAfter,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	g := cfg.Gateway
	if g.HTTPPort <= 0 || g.HTTPPort > 65535 {
		return fmt.Errorf("gateway.http_port %d is out of range [1, 65535]", g.HTTPPort)
	}
	if g.BroadcastInterval <= 0 {
		return fmt.Errorf("gateway.broadcast_interval must be positive")
	}
	if g.Cache.StaleAfter <= 0 {
		return fmt.Errorf("gateway.cache.stale_after must be positive")
	}
	if g.Cache.ExpireAfter <= g.Cache.StaleAfter {
		return fmt.Errorf("gateway.cache.expire_after (%s) must be longer than stale_after (%s)",
			g.Cache.ExpireAfter, g.Cache.StaleAfter)
	}

	seen := make(map[string]bool)
	for _, f := range g.Feeds {
		if _, err := feedkey.Parse(f.Key); err != nil {
			return fmt.Errorf("gateway.feeds: %w", err)
		}
		if seen[f.Key] {
			return fmt.Errorf("gateway.feeds: key %q listed twice", f.Key)
		}
		seen[f.Key] = true
	}
	return nil
}
