package sampler

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/Kush2408/dredger-swiper-v4/pkg/feedkey"
	"github.com/Kush2408/dredger-swiper-v4/pkg/telemetry"
)

// walk is one bounded random-walk channel. Each step drifts the value by
// up to ±step and clamps it to [min, max].
type walk struct {
	val, min, max, step float64
}

func (w *walk) next(rng *rand.Rand) float64 {
	w.val += (rng.Float64()*2 - 1) * w.step
	if w.val < w.min {
		w.val = w.min
	}
	if w.val > w.max {
		w.val = w.max
	}
	return w.val
}

// synthetic generates plausible dredging telemetry without any external
// source. One instance per feed; walks persist across samples so values
// evolve smoothly instead of jumping.
type synthetic struct {
	key feedkey.Key

	mu    sync.Mutex
	rng   *rand.Rand
	walks map[string]*walk
	now   func() time.Time

	totalVolumeM3 float64 // monotonic production counter for the dashboard
}

func newSynthetic(key feedkey.Key) *synthetic {
	return &synthetic{
		key:   key,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		walks: make(map[string]*walk),
		now:   time.Now,
	}
}

// step returns the named walk's next value, creating the walk at start
// on first use.
func (s *synthetic) step(name string, start, min, max, stepSize float64) float64 {
	w, ok := s.walks[name]
	if !ok {
		w = &walk{val: start, min: min, max: max, step: stepSize}
		s.walks[name] = w
	}
	return w.next(s.rng)
}

func (s *synthetic) Sample(_ context.Context) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sampledAt := s.now().UTC().Format(time.RFC3339)

	var payload any
	switch s.key {
	case feedkey.EnginePropulsion:
		payload = telemetry.EnginePropulsion{
			EngineRPM:          s.step("engine_rpm", 620, 400, 750, 12),
			EngineLoadPct:      s.step("engine_load", 78, 20, 100, 3),
			FuelRateLPH:        s.step("fuel_rate", 840, 300, 1200, 25),
			CoolantTempC:       s.step("coolant_temp", 82, 60, 98, 0.8),
			LubeOilPressureBar: s.step("lube_oil", 4.1, 2.5, 5.5, 0.1),
			PropulsionPitchPct: s.step("pitch", 65, 0, 100, 4),
			ShaftPowerKW:       s.step("shaft_power", 5200, 1000, 8000, 150),
			SampledAt:          sampledAt,
		}

	case feedkey.SuctionSystem, feedkey.SuctionSystemStream:
		payload = telemetry.SuctionSystem{
			PumpRPM:              s.step("pump_rpm", 290, 150, 400, 8),
			SuctionVacuumKPa:     s.step("vacuum", 62, 20, 90, 3),
			DischargePressureKPa: s.step("discharge", 480, 200, 700, 15),
			MixtureDensityTM3:    s.step("density", 1.28, 1.0, 1.6, 0.03),
			MixtureVelocityMS:    s.step("velocity", 5.4, 3.0, 7.5, 0.2),
			FlowRateM3H:          s.step("flow", 7800, 3000, 11000, 250),
			DredgeDepthM:         s.step("depth", 18.5, 5, 35, 0.5),
			HopperLoadT:          s.step("hopper_load", 2600, 0, 4400, 60),
			SampledAt:            sampledAt,
		}

	case feedkey.PredictiveAnalysis, feedkey.PredictiveAnalysisStream:
		payload = telemetry.PredictiveAnalysis{
			PumpWearIndexPct:        s.step("wear", 34, 0, 100, 0.4),
			PumpEfficiencyPct:       s.step("efficiency", 81, 40, 95, 0.6),
			MaintenanceDueHours:     s.step("maint_due", 410, 0, 2000, 6),
			ProductionForecastM3H:   s.step("forecast", 7400, 2000, 11000, 180),
			PipelineBlockageRiskPct: s.step("blockage", 12, 0, 100, 1.5),
			ModelConfidence:         s.step("confidence", 0.86, 0.5, 0.99, 0.01),
			SampledAt:               sampledAt,
		}

	default:
		// dashboard and dashboard-stream share the summary payload.
		rate := s.step("production_rate", 7200, 0, 11000, 220)
		payload = telemetry.DashboardSummary{
			VesselState:       s.vesselState(),
			ProductionRateM3H: rate,
			TotalVolumeM3:     s.accumulate(rate),
			SpeedKn:           s.step("speed", 2.8, 0, 14, 0.3),
			HopperFillPct:     s.step("hopper_fill", 58, 0, 100, 2),
			SampledAt:         sampledAt,
		}
	}

	return json.Marshal(payload)
}

// accumulate advances the monotonic produced-volume counter as if rate
// held since the previous sample.
func (s *synthetic) accumulate(rateM3H float64) float64 {
	s.totalVolumeM3 += rateM3H / 3600 // one nominal second per tick
	return s.totalVolumeM3
}

// vesselState derives a coarse operating state from the hopper fill walk.
func (s *synthetic) vesselState() string {
	fill, ok := s.walks["hopper_fill"]
	if !ok {
		return "dredging"
	}
	switch {
	case fill.val >= 95:
		return "sailing"
	case fill.val <= 2:
		return "idle"
	default:
		return "dredging"
	}
}
