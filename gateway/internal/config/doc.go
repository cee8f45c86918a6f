// Package config loads the gateway section of the YAML config file and
// watches it for changes. The feedd section in the same file is ignored.
package config
