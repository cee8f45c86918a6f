package telemetry

// EnginePropulsion is the payload published on the engine-propulsion feed.
type EnginePropulsion struct {
	EngineRPM          float64 `json:"engine_rpm"`
	EngineLoadPct      float64 `json:"engine_load_pct"`
	FuelRateLPH        float64 `json:"fuel_rate_lph"`
	CoolantTempC       float64 `json:"coolant_temp_c"`
	LubeOilPressureBar float64 `json:"lube_oil_pressure_bar"`
	PropulsionPitchPct float64 `json:"propulsion_pitch_pct"`
	ShaftPowerKW       float64 `json:"shaft_power_kw"`
	SampledAt          string  `json:"sampled_at"` // RFC3339
}

// SuctionSystem is the payload published on the suction-system feed.
type SuctionSystem struct {
	PumpRPM              float64 `json:"pump_rpm"`
	SuctionVacuumKPa     float64 `json:"suction_vacuum_kpa"`
	DischargePressureKPa float64 `json:"discharge_pressure_kpa"`
	MixtureDensityTM3    float64 `json:"mixture_density_t_m3"`
	MixtureVelocityMS    float64 `json:"mixture_velocity_m_s"`
	FlowRateM3H          float64 `json:"flow_rate_m3_h"`
	DredgeDepthM         float64 `json:"dredge_depth_m"`
	HopperLoadT          float64 `json:"hopper_load_t"`
	SampledAt            string  `json:"sampled_at"` // RFC3339
}

// PredictiveAnalysis is the payload published on the predictive-analysis feed.
type PredictiveAnalysis struct {
	PumpWearIndexPct        float64 `json:"pump_wear_index_pct"`
	PumpEfficiencyPct       float64 `json:"pump_efficiency_pct"`
	MaintenanceDueHours     float64 `json:"maintenance_due_hours"`
	ProductionForecastM3H   float64 `json:"production_forecast_m3_h"`
	PipelineBlockageRiskPct float64 `json:"pipeline_blockage_risk_pct"`
	ModelConfidence         float64 `json:"model_confidence"`
	SampledAt               string  `json:"sampled_at"` // RFC3339
}

// DashboardSummary is the payload published on the dashboard feed — the
// top-level overview card values.
type DashboardSummary struct {
	VesselState       string  `json:"vessel_state"` // dredging | sailing | discharging | idle
	ProductionRateM3H float64 `json:"production_rate_m3_h"`
	TotalVolumeM3     float64 `json:"total_volume_m3"`
	SpeedKn           float64 `json:"speed_kn"`
	HopperFillPct     float64 `json:"hopper_fill_pct"`
	SampledAt         string  `json:"sampled_at"` // RFC3339
}
