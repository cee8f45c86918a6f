// Package feedkey defines the fixed set of dashboard feed identifiers
// shared by the gateway and feedd. Keys are opaque process-wide strings;
// consumers must use the published constants, never derive their own.
package feedkey
