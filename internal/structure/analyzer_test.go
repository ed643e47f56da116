package structure

import (
	"testing"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/models"
)

func testConfig() *config.Config {
	return &config.Config{
		MinCandles:        20,
		SwingWindow:       2,
		MaxSwingPoints:    5,
		RangeLookback:     50,
		VolVeryLowPct:     1.0,
		VolCompressionPct: 1.5,
		VolExpansionPct:   2.5,
		VolVeryHighPct:    4.0,
	}
}

func generateTestCandles(n int, generator func(int) models.Candle) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = generator(i)
	}
	return candles
}

func flatCandles(n int, price float64) []models.Candle {
	return generateTestCandles(n, func(i int) models.Candle {
		return models.Candle{Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1000}
	})
}

func TestClassifyVolatility(t *testing.T) {
	a := NewAnalyzer(testConfig())

	tests := []struct {
		name     string
		atrPct   float64
		expected models.VolatilityRegime
	}{
		{"very low below tight bound", 0.8, models.VolVeryLow},
		{"compression between bounds", 1.2, models.VolCompression},
		{"normal mid ladder", 2.0, models.VolNormal},
		{"expansion above upper1", 3.0, models.VolExpansion},
		{"very high above upper2", 5.0, models.VolVeryHigh},
		{"boundary very low", 0.999, models.VolVeryLow},
		{"boundary compression", 1.499, models.VolCompression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.classifyVolatility(tt.atrPct); got != tt.expected {
				t.Errorf("classifyVolatility(%v) = %v, want %v", tt.atrPct, got, tt.expected)
			}
		})
	}
}

// Every regime label must be reachable; a ladder that checks compression
// before very_low silently kills the very_low branch.
func TestClassifyVolatilityAllBranchesReachable(t *testing.T) {
	a := NewAnalyzer(testConfig())

	seen := map[models.VolatilityRegime]bool{}
	for _, atrPct := range []float64{0.5, 1.2, 2.0, 3.0, 6.0} {
		seen[a.classifyVolatility(atrPct)] = true
	}

	for _, regime := range []models.VolatilityRegime{
		models.VolVeryLow, models.VolCompression, models.VolNormal,
		models.VolExpansion, models.VolVeryHigh,
	} {
		if !seen[regime] {
			t.Errorf("regime %v unreachable", regime)
		}
	}
}

func TestDetectSwingsRecencyOrder(t *testing.T) {
	// Two clear swing lows: an older, lower one and a more recent, higher
	// one. Recency ordering must put the recent one first even though the
	// older one is the more extreme price.
	candles := flatCandles(40, 95000)
	candles[10] = models.Candle{Open: 93000, High: 93500, Low: 92000, Close: 93000, Volume: 1000}
	candles[30] = models.Candle{Open: 94000, High: 94200, Low: 93800, Close: 94000, Volume: 1000}

	a := NewAnalyzer(testConfig())
	ps := a.Compute(candles, 95000, models.IndicatorBundle{})

	if len(ps.SwingLows) < 2 {
		t.Fatalf("expected at least 2 swing lows, got %d", len(ps.SwingLows))
	}
	if ps.SwingLows[0].Price != 93800 {
		t.Errorf("first swing low = %v, want most recent 93800", ps.SwingLows[0].Price)
	}
	for i := 1; i < len(ps.SwingLows); i++ {
		if ps.SwingLows[0].RecencyIndex < ps.SwingLows[i].RecencyIndex {
			t.Errorf("swing low %d (index %d) is more recent than the first (index %d)",
				i, ps.SwingLows[i].RecencyIndex, ps.SwingLows[0].RecencyIndex)
		}
	}
}

func TestDetectSwingsCap(t *testing.T) {
	// Alternating peaks produce many pivots; the lists must cap at
	// MaxSwingPoints keeping the most recent ones.
	candles := generateTestCandles(60, func(i int) models.Candle {
		price := 100.0
		if i%4 == 0 {
			price = 110
		} else if i%4 == 2 {
			price = 90
		}
		return models.Candle{Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1000}
	})

	a := NewAnalyzer(testConfig())
	highs, lows := a.detectSwings(candles, 100)

	if len(highs) > 5 || len(lows) > 5 {
		t.Errorf("swing lists exceed cap: %d highs, %d lows", len(highs), len(lows))
	}
	for i := 1; i < len(highs); i++ {
		if highs[i].RecencyIndex > highs[i-1].RecencyIndex {
			t.Errorf("swing highs not ordered most-recent-first at %d", i)
		}
	}
}

func TestComputeDegradedOnFewCandles(t *testing.T) {
	a := NewAnalyzer(testConfig())
	ps := a.Compute(flatCandles(5, 100), 100, models.IndicatorBundle{ATRPct: 2.0})

	if len(ps.SwingHighs) != 0 || len(ps.SwingLows) != 0 {
		t.Errorf("expected empty swing lists on degraded input, got %d/%d",
			len(ps.SwingHighs), len(ps.SwingLows))
	}
	if ps.VolatilityRegime != models.VolNormal {
		t.Errorf("degraded structure still classifies volatility, got %v", ps.VolatilityRegime)
	}
	if ps.RangeHigh == 0 || ps.RangeLow == 0 {
		t.Error("degraded structure should still carry the observed range")
	}
}

func TestPositionInRangeNotClamped(t *testing.T) {
	candles := flatCandles(40, 100) // range is [99, 101]

	a := NewAnalyzer(testConfig())

	breakout := a.Compute(candles, 103, models.IndicatorBundle{})
	if breakout.PositionInRange <= 1 {
		t.Errorf("breakout position = %v, want > 1", breakout.PositionInRange)
	}

	breakdown := a.Compute(candles, 97, models.IndicatorBundle{})
	if breakdown.PositionInRange >= 0 {
		t.Errorf("breakdown position = %v, want < 0", breakdown.PositionInRange)
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name     string
		ind      models.IndicatorBundle
		expected string
	}{
		{"ranging low adx", models.IndicatorBundle{ADX: 15, PlusDI: 30, MinusDI: 10}, TrendRanging},
		{"weak bullish", models.IndicatorBundle{ADX: 30, PlusDI: 30, MinusDI: 10}, TrendBullishWeak},
		{"strong bullish", models.IndicatorBundle{ADX: 45, PlusDI: 30, MinusDI: 10}, TrendBullishStrong},
		{"weak bearish", models.IndicatorBundle{ADX: 30, PlusDI: 10, MinusDI: 30}, TrendBearishWeak},
		{"strong bearish", models.IndicatorBundle{ADX: 45, PlusDI: 10, MinusDI: 30}, TrendBearishStrong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyTrend(tt.ind); got != tt.expected {
				t.Errorf("classifyTrend() = %v, want %v", got, tt.expected)
			}
		})
	}
}
