// Package config loads and validates the feedd YAML configuration: the
// HTTP port the publisher listens on, the publish interval, and the list
// of feeds with their sampler backends.
package config
