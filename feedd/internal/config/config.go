package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Kush2408/dredger-swiper-v4/pkg/feedkey"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort        = 9000
	DefaultPublishInterval = 2 * time.Second
)

// Config holds the feedd configuration parsed from the `feedd:` section
// of the shared config file. Fields map 1:1 to config.example.yaml.
type Config struct {
	Feedd FeeddConfig `yaml:"feedd"`
}

// FeeddConfig holds all producer-side settings.
type FeeddConfig struct {
	// HTTPPort is the port the per-feed WebSocket endpoints listen on.
	HTTPPort int `yaml:"http_port"`

	// PublishInterval controls how often each feed is sampled and its
	// payload pushed to subscribers.
	PublishInterval time.Duration `yaml:"publish_interval"`

	// Feeds is the list of feeds this producer serves.
	Feeds []FeedSource `yaml:"feeds"`
}

// FeedSource describes one published feed and the sampler behind it.
type FeedSource struct {
	// Key is the feed identifier; must be one of the published feed keys.
	Key string `yaml:"key"`

	// Sampler selects the telemetry source: synthetic | prometheus.
	Sampler string `yaml:"sampler"`

	// Endpoint is the URL of the shipboard Prometheus-format exporter.
	// Required for the prometheus sampler, ignored otherwise.
	Endpoint string `yaml:"endpoint"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Feedd: FeeddConfig{
			HTTPPort:        DefaultHTTPPort,
			PublishInterval: DefaultPublishInterval,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Feedd.HTTPPort <= 0 || cfg.Feedd.HTTPPort > 65535 {
		return fmt.Errorf("feedd.http_port must be in 1..65535")
	}
	if cfg.Feedd.PublishInterval <= 0 {
		return fmt.Errorf("feedd.publish_interval must be positive")
	}
	seen := make(map[string]bool)
	for i, f := range cfg.Feedd.Feeds {
		if _, err := feedkey.Parse(f.Key); err != nil {
			return fmt.Errorf("feeds[%d]: %w", i, err)
		}
		if seen[f.Key] {
			return fmt.Errorf("feeds[%d]: duplicate key %q", i, f.Key)
		}
		seen[f.Key] = true
		switch f.Sampler {
		case "synthetic", "":
		case "prometheus":
			if f.Endpoint == "" {
				return fmt.Errorf("feeds[%d] %q: prometheus sampler requires endpoint", i, f.Key)
			}
		default:
			return fmt.Errorf("feeds[%d] %q: unknown sampler %q", i, f.Key, f.Sampler)
		}
	}
	return nil
}
