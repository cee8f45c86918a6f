package sampler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Kush2408/dredger-swiper-v4/pkg/feedkey"
	"github.com/Kush2408/dredger-swiper-v4/pkg/telemetry"
)

// Exporter metric names for the engine-room instrumentation.
const (
	engEngineRPM   = "dredger_engine_rpm"
	engEngineLoad  = "dredger_engine_load_percent"
	engFuelRate    = "dredger_fuel_rate_lph"
	engCoolantTemp = "dredger_coolant_temp_celsius"
	engLubeOil     = "dredger_lube_oil_pressure_bar"
	engPropPitch   = "dredger_propulsion_pitch_percent"
	engShaftPower  = "dredger_shaft_power_kw"
	sucPumpRPM     = "dredger_pump_rpm"
	sucVacuum      = "dredger_suction_vacuum_kpa"
	sucDischarge   = "dredger_discharge_pressure_kpa"
	sucDensity     = "dredger_mixture_density_t_m3"
	sucVelocity    = "dredger_mixture_velocity_m_s"
	sucFlowRate    = "dredger_flow_rate_m3_h"
	sucDredgeDepth = "dredger_dredge_depth_m"
	sucHopperLoad  = "dredger_hopper_load_t"
)

// promSampler scrapes a shipboard Prometheus-format exporter and maps
// its metric families onto the feed's payload fields. Only the
// engine-propulsion and suction-system families have an exporter
// mapping; the derived feeds stay synthetic.
type promSampler struct {
	key      feedkey.Key
	endpoint string
	client   *http.Client
	now      func() time.Time
}

func newPromSampler(key feedkey.Key, endpoint string, client *http.Client) (*promSampler, error) {
	switch key {
	case feedkey.EnginePropulsion, feedkey.SuctionSystem, feedkey.SuctionSystemStream:
	default:
		return nil, fmt.Errorf("sampler: no exporter mapping for feed %q", key)
	}
	return &promSampler{
		key:      key,
		endpoint: endpoint,
		client:   client,
		now:      time.Now,
	}, nil
}

func (s *promSampler) Sample(ctx context.Context) (json.RawMessage, error) {
	mfs, err := fetchMetrics(ctx, s.client, s.endpoint)
	if err != nil {
		slog.Warn("sampler: exporter fetch failed", "feed", s.key, "err", err)
		return nil, fmt.Errorf("sample %q: %w", s.key, err)
	}

	sampledAt := s.now().UTC().Format(time.RFC3339)

	var payload any
	switch s.key {
	case feedkey.EnginePropulsion:
		payload = telemetry.EnginePropulsion{
			EngineRPM:          familyValue(mfs[engEngineRPM]),
			EngineLoadPct:      familyValue(mfs[engEngineLoad]),
			FuelRateLPH:        familyValue(mfs[engFuelRate]),
			CoolantTempC:       familyValue(mfs[engCoolantTemp]),
			LubeOilPressureBar: familyValue(mfs[engLubeOil]),
			PropulsionPitchPct: familyValue(mfs[engPropPitch]),
			ShaftPowerKW:       familyValue(mfs[engShaftPower]),
			SampledAt:          sampledAt,
		}
	default:
		payload = telemetry.SuctionSystem{
			PumpRPM:              familyValue(mfs[sucPumpRPM]),
			SuctionVacuumKPa:     familyValue(mfs[sucVacuum]),
			DischargePressureKPa: familyValue(mfs[sucDischarge]),
			MixtureDensityTM3:    familyValue(mfs[sucDensity]),
			MixtureVelocityMS:    familyValue(mfs[sucVelocity]),
			FlowRateM3H:          familyValue(mfs[sucFlowRate]),
			DredgeDepthM:         familyValue(mfs[sucDredgeDepth]),
			HopperLoadT:          familyValue(mfs[sucHopperLoad]),
			SampledAt:            sampledAt,
		}
	}

	return json.Marshal(payload)
}
