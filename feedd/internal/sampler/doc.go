// Package sampler produces one telemetry payload per feed per tick.
// Two backends exist: a synthetic random-walk generator for development
// and demos, and a scraper that reads a shipboard Prometheus-format
// exporter and maps its metric families onto the feed's payload fields.
package sampler
