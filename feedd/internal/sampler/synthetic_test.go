package sampler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Kush2408/dredger-swiper-v4/feedd/internal/config"
	"github.com/Kush2408/dredger-swiper-v4/pkg/feedkey"
	"github.com/Kush2408/dredger-swiper-v4/pkg/telemetry"
)

func TestSynthetic_PayloadPerFeed(t *testing.T) {
	tests := []struct {
		key    feedkey.Key
		decode func(raw json.RawMessage) error
	}{
		{feedkey.Dashboard, func(raw json.RawMessage) error {
			var v telemetry.DashboardSummary
			return json.Unmarshal(raw, &v)
		}},
		{feedkey.DashboardStream, func(raw json.RawMessage) error {
			var v telemetry.DashboardSummary
			return json.Unmarshal(raw, &v)
		}},
		{feedkey.EnginePropulsion, func(raw json.RawMessage) error {
			var v telemetry.EnginePropulsion
			return json.Unmarshal(raw, &v)
		}},
		{feedkey.SuctionSystem, func(raw json.RawMessage) error {
			var v telemetry.SuctionSystem
			return json.Unmarshal(raw, &v)
		}},
		{feedkey.PredictiveAnalysis, func(raw json.RawMessage) error {
			var v telemetry.PredictiveAnalysis
			return json.Unmarshal(raw, &v)
		}},
	}
	for _, tc := range tests {
		t.Run(string(tc.key), func(t *testing.T) {
			s := newSynthetic(tc.key)
			raw, err := s.Sample(context.Background())
			if err != nil {
				t.Fatalf("Sample() error = %v", err)
			}
			if err := tc.decode(raw); err != nil {
				t.Fatalf("payload does not decode: %v", err)
			}
		})
	}
}

func TestSynthetic_WalkStaysInBounds(t *testing.T) {
	s := newSynthetic(feedkey.SuctionSystem)
	for i := 0; i < 200; i++ {
		raw, err := s.Sample(context.Background())
		if err != nil {
			t.Fatalf("Sample() error = %v", err)
		}
		var v telemetry.SuctionSystem
		if err := json.Unmarshal(raw, &v); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if v.PumpRPM < 150 || v.PumpRPM > 400 {
			t.Fatalf("PumpRPM walked out of bounds: %v", v.PumpRPM)
		}
		if v.MixtureDensityTM3 < 1.0 || v.MixtureDensityTM3 > 1.6 {
			t.Fatalf("MixtureDensityTM3 walked out of bounds: %v", v.MixtureDensityTM3)
		}
	}
}

func TestSynthetic_TotalVolumeMonotonic(t *testing.T) {
	s := newSynthetic(feedkey.Dashboard)
	var prev float64
	for i := 0; i < 50; i++ {
		raw, err := s.Sample(context.Background())
		if err != nil {
			t.Fatalf("Sample() error = %v", err)
		}
		var v telemetry.DashboardSummary
		if err := json.Unmarshal(raw, &v); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if v.TotalVolumeM3 < prev {
			t.Fatalf("TotalVolumeM3 went backwards: %v < %v", v.TotalVolumeM3, prev)
		}
		prev = v.TotalVolumeM3
	}
}

func TestSynthetic_SampledAtIsRFC3339(t *testing.T) {
	s := newSynthetic(feedkey.EnginePropulsion)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	raw, err := s.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	var v telemetry.EnginePropulsion
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.SampledAt != "2025-06-01T12:00:00Z" {
		t.Errorf("SampledAt = %q, want 2025-06-01T12:00:00Z", v.SampledAt)
	}
}

func TestNew_SamplerSelection(t *testing.T) {
	tests := []struct {
		name    string
		src     config.FeedSource
		wantErr bool
	}{
		{"default synthetic", config.FeedSource{Key: "dashboard"}, false},
		{"explicit synthetic", config.FeedSource{Key: "suction-system", Sampler: "synthetic"}, false},
		{"prometheus", config.FeedSource{Key: "engine-propulsion", Sampler: "prometheus", Endpoint: "http://localhost:9187/metrics"}, false},
		{"unknown key", config.FeedSource{Key: "ballast"}, true},
		{"unknown sampler", config.FeedSource{Key: "dashboard", Sampler: "divination"}, true},
		{"prometheus unmapped feed", config.FeedSource{Key: "dashboard", Sampler: "prometheus", Endpoint: "http://localhost:9187/metrics"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.src)
			if (err != nil) != tc.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
