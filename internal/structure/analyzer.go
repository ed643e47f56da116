// Package structure derives price geometry from a candle series: swing
// points, trading range, trend state and the volatility regime.
package structure

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/models"
)

// Trend state labels per timeframe bucket.
const (
	TrendBullishStrong = "bullish_strong"
	TrendBullishWeak   = "bullish_weak"
	TrendBearishStrong = "bearish_strong"
	TrendBearishWeak   = "bearish_weak"
	TrendRanging       = "ranging"
)

// Analyzer computes the PriceStructure for a snapshot.
type Analyzer struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewAnalyzer creates a price structure analyzer.
func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{
		cfg:    cfg,
		logger: log.With().Str("component", "structure_analyzer").Logger(),
	}
}

// Compute derives the price structure. With fewer than MinCandles candles it
// returns a degraded structure with empty swing lists instead of failing.
func (a *Analyzer) Compute(candles []models.Candle, currentPrice float64, ind models.IndicatorBundle) models.PriceStructure {
	ps := models.PriceStructure{
		VolatilityRegime: a.classifyVolatility(ind.ATRPct),
		TrendState:       classifyTrend(ind),
	}

	if len(candles) == 0 {
		return ps
	}

	a.fillRange(&ps, candles, currentPrice)

	if len(candles) < a.cfg.MinCandles {
		a.logger.Warn().
			Int("candles", len(candles)).
			Int("min", a.cfg.MinCandles).
			Msg("Insufficient candles for swing detection, returning degraded structure")
		a.fillDistances(&ps, currentPrice)
		return ps
	}

	ps.SwingHighs, ps.SwingLows = a.detectSwings(candles, currentPrice)
	a.fillDistances(&ps, currentPrice)
	return ps
}

// detectSwings scans for local extrema: a candle is a swing high when its
// high exceeds the highs of SwingWindow neighbors on both sides, symmetric
// for swing lows. The returned lists hold at most MaxSwingPoints entries and
// are ordered most-recent-first. Ordering by recency rather than price is
// deliberate: the most recent pivot is the relevant one even when older
// pivots are more extreme.
func (a *Analyzer) detectSwings(candles []models.Candle, currentPrice float64) (highs, lows []models.SwingPoint) {
	w := a.cfg.SwingWindow

	// Walk from the newest eligible candle backwards so the caps keep the
	// most recent pivots.
	for i := len(candles) - 1 - w; i >= w; i-- {
		if len(highs) >= a.cfg.MaxSwingPoints && len(lows) >= a.cfg.MaxSwingPoints {
			break
		}

		isHigh, isLow := true, true
		for j := i - w; j <= i+w; j++ {
			if j == i {
				continue
			}
			if candles[j].High >= candles[i].High {
				isHigh = false
			}
			if candles[j].Low <= candles[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}

		if isHigh && len(highs) < a.cfg.MaxSwingPoints {
			highs = append(highs, swingPoint(candles[i].High, i, currentPrice))
		}
		if isLow && len(lows) < a.cfg.MaxSwingPoints {
			lows = append(lows, swingPoint(candles[i].Low, i, currentPrice))
		}
	}
	return highs, lows
}

func swingPoint(price float64, index int, currentPrice float64) models.SwingPoint {
	sp := models.SwingPoint{Price: price, RecencyIndex: index}
	if currentPrice > 0 {
		sp.DistancePct = (price - currentPrice) / currentPrice * 100
	}
	return sp
}

// fillRange computes the lookback range and the current position inside it.
// PositionInRange is intentionally not clamped: values outside [0,1] signal
// a breakout or breakdown and must survive to the output.
func (a *Analyzer) fillRange(ps *models.PriceStructure, candles []models.Candle, currentPrice float64) {
	start := len(candles) - a.cfg.RangeLookback
	if start < 0 {
		start = 0
	}

	ps.RangeHigh = candles[start].High
	ps.RangeLow = candles[start].Low
	for i := start + 1; i < len(candles); i++ {
		if candles[i].High > ps.RangeHigh {
			ps.RangeHigh = candles[i].High
		}
		if candles[i].Low < ps.RangeLow {
			ps.RangeLow = candles[i].Low
		}
	}

	if span := ps.RangeHigh - ps.RangeLow; span > 0 {
		ps.PositionInRange = (currentPrice - ps.RangeLow) / span
	}
}

// fillDistances records the percent distance to the nearest swing-derived
// resistance above and support below, falling back to the range bounds when
// no swing sits on the needed side.
func (a *Analyzer) fillDistances(ps *models.PriceStructure, currentPrice float64) {
	if currentPrice <= 0 {
		return
	}

	nearestAbove := 0.0
	for _, sp := range ps.SwingHighs {
		if sp.Price > currentPrice && (nearestAbove == 0 || sp.Price < nearestAbove) {
			nearestAbove = sp.Price
		}
	}
	if nearestAbove == 0 && ps.RangeHigh > currentPrice {
		nearestAbove = ps.RangeHigh
	}
	if nearestAbove > 0 {
		ps.DistToResistancePct = (nearestAbove - currentPrice) / currentPrice * 100
	}

	nearestBelow := 0.0
	for _, sp := range ps.SwingLows {
		if sp.Price < currentPrice && sp.Price > nearestBelow {
			nearestBelow = sp.Price
		}
	}
	if nearestBelow == 0 && ps.RangeLow > 0 && ps.RangeLow < currentPrice {
		nearestBelow = ps.RangeLow
	}
	if nearestBelow > 0 {
		ps.DistToSupportPct = (currentPrice - nearestBelow) / currentPrice * 100
	}
}

// classifyVolatility maps ATR% onto the regime ladder. The ladder is checked
// from the extremes inward; checking the looser compression bound before the
// tighter very_low bound would make very_low unreachable.
func (a *Analyzer) classifyVolatility(atrPct float64) models.VolatilityRegime {
	switch {
	case atrPct > a.cfg.VolVeryHighPct:
		return models.VolVeryHigh
	case atrPct > a.cfg.VolExpansionPct:
		return models.VolExpansion
	case atrPct < a.cfg.VolVeryLowPct:
		return models.VolVeryLow
	case atrPct < a.cfg.VolCompressionPct:
		return models.VolCompression
	default:
		return models.VolNormal
	}
}

// classifyTrend derives the qualitative trend label from the directional
// movement block: ADX above 25 marks a trend, above 40 a strong one, and the
// dominant DI picks the direction.
func classifyTrend(ind models.IndicatorBundle) string {
	if ind.ADX <= 25 {
		return TrendRanging
	}

	strong := ind.ADX > 40
	if ind.PlusDI >= ind.MinusDI {
		if strong {
			return TrendBullishStrong
		}
		return TrendBullishWeak
	}
	if strong {
		return TrendBearishStrong
	}
	return TrendBearishWeak
}
