package liquidation

import (
	"reflect"
	"testing"
	"time"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/models"
)

func testConfig() *config.Config {
	return &config.Config{
		LiqBinPct:          0.005,
		LiqTierMediumUSD:   500_000,
		LiqTierHighUSD:     2_000_000,
		LiqTierVeryHighUSD: 10_000_000,
		LiqSpikeFactor:     3.0,
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	a := NewAggregator(testConfig())
	set := a.Aggregate(nil, 95000)

	if set.Pressure != PressureNeutral {
		t.Errorf("pressure = %v, want neutral", set.Pressure)
	}
	if set.TotalVolumeUSD != 0 || set.LongLiquidatedPct != 0 || set.ShortLiquidatedPct != 0 {
		t.Errorf("expected zeroed volumes, got total=%v long=%v short=%v",
			set.TotalVolumeUSD, set.LongLiquidatedPct, set.ShortLiquidatedPct)
	}
	if set.SpikeDetected {
		t.Error("spike_detected must be false for empty input")
	}
	if len(set.ClustersAbove) != 0 || len(set.ClustersBelow) != 0 {
		t.Error("expected no clusters for empty input")
	}
}

func TestAggregateDeterministicBins(t *testing.T) {
	now := time.Now()
	events := []models.LiquidationEvent{
		{Price: 95120, Side: "long", VolumeUSD: 600_000, Timestamp: now},
		// Just above a bin midpoint: floor assignment must keep it in the
		// lower bin where round-to-nearest would promote it.
		{Price: 95237.6, Side: "long", VolumeUSD: 100_000, Timestamp: now},
		{Price: 94400, Side: "short", VolumeUSD: 3_000_000, Timestamp: now},
	}

	a := NewAggregator(testConfig())
	first := a.Aggregate(events, 95000)
	for i := 0; i < 5; i++ {
		again := a.Aggregate(events, 95000)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("aggregation not idempotent on call %d:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}

	// binSize = 95000 * 0.005 = 475; floor(95237.6/475)*475 = 95000, not 95475.
	found := false
	for _, c := range first.ClustersAbove {
		if c.Price == 95000 {
			found = true
		}
		if c.Price == 95475 {
			t.Error("event just above bin midpoint jumped to the next bin")
		}
	}
	if !found {
		t.Errorf("expected a cluster at bin floor 95000, got %+v", first.ClustersAbove)
	}
}

func TestAggregateClusterOrderingAndIntensity(t *testing.T) {
	now := time.Now()
	events := []models.LiquidationEvent{
		{Price: 97000, Side: "short", VolumeUSD: 11_000_000, Timestamp: now},
		{Price: 95500, Side: "short", VolumeUSD: 2_500_000, Timestamp: now},
		{Price: 93000, Side: "long", VolumeUSD: 700_000, Timestamp: now},
		{Price: 94500, Side: "long", VolumeUSD: 100_000, Timestamp: now},
	}

	a := NewAggregator(testConfig())
	set := a.Aggregate(events, 95000)

	if len(set.ClustersAbove) != 2 || len(set.ClustersBelow) != 2 {
		t.Fatalf("clusters above/below = %d/%d, want 2/2", len(set.ClustersAbove), len(set.ClustersBelow))
	}
	if set.ClustersAbove[0].Price > set.ClustersAbove[1].Price {
		t.Error("clusters above not nearest-first")
	}
	if set.ClustersBelow[0].Price < set.ClustersBelow[1].Price {
		t.Error("clusters below not nearest-first")
	}

	wantIntensity := map[float64]string{
		set.ClustersAbove[1].Price: "very_high", // 11M cluster sits further above
	}
	for price, want := range wantIntensity {
		for _, c := range set.ClustersAbove {
			if c.Price == price && c.Intensity != want {
				t.Errorf("cluster %v intensity = %v, want %v", price, c.Intensity, want)
			}
		}
	}
}

func TestAggregatePressureLabel(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		events   []models.LiquidationEvent
		expected string
	}{
		{
			name: "heavy long liquidation is bearish pressure",
			events: []models.LiquidationEvent{
				{Price: 94000, Side: "long", VolumeUSD: 9_000_000, Timestamp: now},
				{Price: 96000, Side: "short", VolumeUSD: 1_000_000, Timestamp: now},
			},
			expected: PressureBearish,
		},
		{
			name: "heavy short liquidation is bullish pressure",
			events: []models.LiquidationEvent{
				{Price: 94000, Side: "long", VolumeUSD: 1_000_000, Timestamp: now},
				{Price: 96000, Side: "short", VolumeUSD: 9_000_000, Timestamp: now},
			},
			expected: PressureBullish,
		},
		{
			name: "balanced split stays neutral",
			events: []models.LiquidationEvent{
				{Price: 94000, Side: "long", VolumeUSD: 5_000_000, Timestamp: now},
				{Price: 96000, Side: "short", VolumeUSD: 5_000_000, Timestamp: now},
			},
			expected: PressureNeutral,
		},
	}

	a := NewAggregator(testConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if set := a.Aggregate(tt.events, 95000); set.Pressure != tt.expected {
				t.Errorf("pressure = %v, want %v", set.Pressure, tt.expected)
			}
		})
	}
}

func TestDetectSpikeFloorsWindowAtOneHour(t *testing.T) {
	a := NewAggregator(testConfig())

	// All events inside 10 minutes. With a raw denominator of 10/60 hours
	// the average would equal six times the total and no spike could ever
	// fire; flooring the window at 1h makes recent==total==average, i.e.
	// magnitude exactly 1.
	now := time.Now()
	events := []models.LiquidationEvent{
		{Price: 94000, Side: "long", VolumeUSD: 4_000_000, Timestamp: now.Add(-10 * time.Minute)},
		{Price: 94100, Side: "long", VolumeUSD: 4_000_000, Timestamp: now},
	}

	detected, magnitude := a.detectSpike(events)
	if magnitude != 1.0 {
		t.Errorf("magnitude = %v, want 1.0 with floored window", magnitude)
	}
	if detected {
		t.Error("uniform volume must not register as a spike")
	}
}

func TestDetectSpikeFiresOnRecentBurst(t *testing.T) {
	a := NewAggregator(testConfig())

	now := time.Now()
	events := []models.LiquidationEvent{
		// Quiet tail over five hours, then a burst in the last hour.
		{Price: 94000, Side: "long", VolumeUSD: 100_000, Timestamp: now.Add(-5 * time.Hour)},
		{Price: 94100, Side: "long", VolumeUSD: 100_000, Timestamp: now.Add(-4 * time.Hour)},
		{Price: 94200, Side: "long", VolumeUSD: 100_000, Timestamp: now.Add(-3 * time.Hour)},
		{Price: 94300, Side: "long", VolumeUSD: 8_000_000, Timestamp: now.Add(-20 * time.Minute)},
		{Price: 94350, Side: "long", VolumeUSD: 8_000_000, Timestamp: now},
	}

	detected, magnitude := a.detectSpike(events)
	if !detected {
		t.Errorf("expected spike, magnitude = %v", magnitude)
	}
	if magnitude < a.cfg.LiqSpikeFactor {
		t.Errorf("magnitude = %v, want >= %v", magnitude, a.cfg.LiqSpikeFactor)
	}
}
