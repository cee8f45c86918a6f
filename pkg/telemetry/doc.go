// Package telemetry defines the shared payload schemas published by feedd
// and decoded by dashboard presentation code. The gateway core never
// depends on these shapes — it treats feed payloads as opaque JSON.
package telemetry
