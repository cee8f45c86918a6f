package feedkey

import "fmt"

// Key identifies one logical dashboard feed. The set of keys is fixed;
// consumers must use these constants rather than deriving their own.
type Key string

const (
	// Dashboard carries the top-level overview card values.
	Dashboard Key = "dashboard"

	// DashboardStream is the connection marker for the dashboard feed.
	DashboardStream Key = "dashboard-stream"

	// EnginePropulsion carries main engine and propulsion telemetry.
	EnginePropulsion Key = "engine-propulsion"

	// SuctionSystem carries dredge pump and suction line telemetry.
	SuctionSystem Key = "suction-system"

	// SuctionSystemStream is the connection marker for the suction feed.
	SuctionSystemStream Key = "suction-system-stream"

	// PredictiveAnalysis carries model-derived wear and production forecasts.
	PredictiveAnalysis Key = "predictive-analysis"

	// PredictiveAnalysisStream is the connection marker for the
	// predictive-analysis feed.
	PredictiveAnalysisStream Key = "predictive-analysis-stream"
)

// All returns every defined feed key in display order.
func All() []Key {
	return []Key{
		Dashboard,
		DashboardStream,
		EnginePropulsion,
		SuctionSystem,
		SuctionSystemStream,
		PredictiveAnalysis,
		PredictiveAnalysisStream,
	}
}

// Valid reports whether k is one of the defined feed keys.
func Valid(k Key) bool {
	switch k {
	case Dashboard, DashboardStream, EnginePropulsion,
		SuctionSystem, SuctionSystemStream,
		PredictiveAnalysis, PredictiveAnalysisStream:
		return true
	}
	return false
}

// Parse converts a raw string (e.g. from config or a URL path) to a Key.
func Parse(s string) (Key, error) {
	k := Key(s)
	if !Valid(k) {
		return "", fmt.Errorf("feedkey: unknown key %q", s)
	}
	return k, nil
}
