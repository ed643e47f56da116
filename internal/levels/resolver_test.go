package levels

import (
	"errors"
	"testing"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/models"
)

func testConfig() *config.Config {
	return &config.Config{
		MinCandles:    20,
		SwingWindow:   2,
		MaxCandidates: 5,
	}
}

func TestResolveSwingFallbackOrdering(t *testing.T) {
	// No candles, so the touch-cluster tier yields nothing and the swing
	// tier takes over. The recent 93800 low must come before the older,
	// lower 92000 low.
	ps := models.PriceStructure{
		SwingLows: []models.SwingPoint{
			{Price: 93800, RecencyIndex: 30},
			{Price: 92000, RecencyIndex: 10},
		},
		SwingHighs: []models.SwingPoint{
			{Price: 96500, RecencyIndex: 25},
		},
	}

	r := NewResolver(testConfig())
	got, err := r.Resolve(nil, ps, models.IndicatorBundle{}, 95000)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if got.SupportSource != "swing_points" {
		t.Errorf("support source = %v, want swing_points", got.SupportSource)
	}
	if len(got.Support) != 2 || got.Support[0] != 93800 || got.Support[1] != 92000 {
		t.Errorf("support = %v, want [93800 92000]", got.Support)
	}
	if len(got.Resistance) != 1 || got.Resistance[0] != 96500 {
		t.Errorf("resistance = %v, want [96500]", got.Resistance)
	}
}

func TestResolveNeverEmptyWithSwingsOnBothSides(t *testing.T) {
	ps := models.PriceStructure{
		SwingLows:  []models.SwingPoint{{Price: 90, RecencyIndex: 5}},
		SwingHighs: []models.SwingPoint{{Price: 110, RecencyIndex: 8}},
	}

	r := NewResolver(testConfig())
	got, err := r.Resolve(nil, ps, models.IndicatorBundle{}, 100)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(got.Support) == 0 || len(got.Resistance) == 0 {
		t.Errorf("both sides must be populated when swings exist on each side, got %+v", got)
	}
}

func TestResolveIndicatorFallbackSideFilter(t *testing.T) {
	// No candles and no swings: the last tier must classify range bounds
	// and moving averages onto the correct side of price.
	ps := models.PriceStructure{RangeLow: 95, RangeHigh: 112}
	ind := models.IndicatorBundle{EMAFast: 98, EMASlow: 104, SMA: 0, VWAP: 101}

	r := NewResolver(testConfig())
	got, err := r.Resolve(nil, ps, ind, 100)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	for _, s := range got.Support {
		if s >= 100 {
			t.Errorf("support level %v on wrong side of price", s)
		}
	}
	for _, res := range got.Resistance {
		if res <= 100 {
			t.Errorf("resistance level %v on wrong side of price", res)
		}
	}
	if got.SupportSource != "range_and_mas" || got.ResistanceSource != "range_and_mas" {
		t.Errorf("sources = %v/%v, want range_and_mas", got.SupportSource, got.ResistanceSource)
	}
}

func TestResolveExhaustedReturnsError(t *testing.T) {
	r := NewResolver(testConfig())
	got, err := r.Resolve(nil, models.PriceStructure{}, models.IndicatorBundle{}, 100)
	if !errors.Is(err, models.ErrNoCandidateLevels) {
		t.Fatalf("expected ErrNoCandidateLevels, got %v", err)
	}
	if !got.Empty() {
		t.Errorf("expected empty candidate set, got %+v", got)
	}
}

func TestResolveTouchClusterTier(t *testing.T) {
	// A series that repeatedly pivots off ~90 and ~110 while closing near
	// both; the touch-cluster tier should produce levels on both sides.
	candles := make([]models.Candle, 60)
	for i := range candles {
		price := 100.0
		switch i % 8 {
		case 0:
			price = 110
		case 4:
			price = 90
		}
		candles[i] = models.Candle{Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1000}
	}

	r := NewResolver(testConfig())
	got, err := r.Resolve(candles, models.PriceStructure{}, models.IndicatorBundle{}, 100)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.SupportSource != "touch_clusters" {
		t.Errorf("support source = %v, want touch_clusters", got.SupportSource)
	}
	if len(got.Support) == 0 || len(got.Resistance) == 0 {
		t.Errorf("expected clustered levels on both sides, got %+v", got)
	}
	if len(got.Support) > 5 || len(got.Resistance) > 5 {
		t.Errorf("candidate lists exceed cap: %d/%d", len(got.Support), len(got.Resistance))
	}
}
