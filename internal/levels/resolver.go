// Package levels produces the bounded support/resistance candidate lists the
// reasoning step selects prices from. Detection tiers are tried in order and
// each side falls through independently; an empty candidate set is the
// primary source of fabricated output downstream, so the resolver only gives
// up when every tier is dry.
package levels

import (
	"math"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/models"
)

// Resolver derives CandidateLevels from the price structure and indicators.
type Resolver struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewResolver creates a candidate level resolver.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{
		cfg:    cfg,
		logger: log.With().Str("component", "level_resolver").Logger(),
	}
}

type strategy struct {
	name string
	fn   func() (support, resistance []float64)
}

// Resolve runs the fallback chain. It returns ErrNoCandidateLevels only when
// every tier produced nothing on both sides; the engine logs that as a
// data-quality event and proceeds with an explicitly empty set.
func (r *Resolver) Resolve(candles []models.Candle, ps models.PriceStructure, ind models.IndicatorBundle, currentPrice float64) (models.CandidateLevels, error) {
	strategies := []strategy{
		{"touch_clusters", func() ([]float64, []float64) { return r.touchClusteredLevels(candles, currentPrice) }},
		{"swing_points", func() ([]float64, []float64) { return swingLevels(ps, currentPrice) }},
		{"range_and_mas", func() ([]float64, []float64) { return rangeAndIndicatorLevels(ps, ind, currentPrice) }},
	}

	var out models.CandidateLevels
	for _, st := range strategies {
		if len(out.Support) > 0 && len(out.Resistance) > 0 {
			break
		}
		support, resistance := st.fn()
		if len(out.Support) == 0 && len(support) > 0 {
			out.Support = r.bound(support, currentPrice)
			out.SupportSource = st.name
		}
		if len(out.Resistance) == 0 && len(resistance) > 0 {
			out.Resistance = r.bound(resistance, currentPrice)
			out.ResistanceSource = st.name
		}
	}

	if out.Empty() {
		return out, models.ErrNoCandidateLevels
	}

	r.logger.Debug().
		Int("support", len(out.Support)).
		Int("resistance", len(out.Resistance)).
		Str("support_source", out.SupportSource).
		Str("resistance_source", out.ResistanceSource).
		Msg("Resolved candidate levels")

	return out, nil
}

// touchClusteredLevels scans for swing extremes, clusters them into price
// buckets and ranks buckets by how often price touched them. Levels with a
// single touch are kept too; sparsity is the fallback chain's problem, not
// this tier's.
func (r *Resolver) touchClusteredLevels(candles []models.Candle, currentPrice float64) ([]float64, []float64) {
	if len(candles) < r.cfg.MinCandles || currentPrice <= 0 {
		return nil, nil
	}

	tolerance := currentPrice * 0.002
	w := r.cfg.SwingWindow

	pricePoints := make(map[float64]int)
	for i := w; i < len(candles)-w; i++ {
		isLow, isHigh := true, true
		for j := i - w; j <= i+w; j++ {
			if j == i {
				continue
			}
			if candles[j].Low <= candles[i].Low {
				isLow = false
			}
			if candles[j].High >= candles[i].High {
				isHigh = false
			}
		}
		if isLow {
			level := math.Floor(candles[i].Low/tolerance) * tolerance
			pricePoints[level]++
		}
		if isHigh {
			level := math.Floor(candles[i].High/tolerance) * tolerance
			pricePoints[level]++
		}
	}

	// Recent closes near a level reinforce it.
	start := len(candles) - 10
	if start < 0 {
		start = 0
	}
	for i := start; i < len(candles); i++ {
		for price := range pricePoints {
			if math.Abs(candles[i].Close-price) < tolerance*2 {
				pricePoints[price]++
			}
		}
	}

	var support, resistance []float64
	for price := range pricePoints {
		if price < currentPrice {
			support = append(support, price)
		} else if price > currentPrice {
			resistance = append(resistance, price)
		}
	}
	return support, resistance
}

// swingLevels derives candidates from the structure's swing points, side
// filtered against the current price.
func swingLevels(ps models.PriceStructure, currentPrice float64) ([]float64, []float64) {
	var support, resistance []float64
	for _, sp := range ps.SwingLows {
		if sp.Price < currentPrice {
			support = append(support, sp.Price)
		}
	}
	for _, sp := range ps.SwingHighs {
		if sp.Price > currentPrice {
			resistance = append(resistance, sp.Price)
		}
	}
	return support, resistance
}

// rangeAndIndicatorLevels is the last tier: range boundaries plus moving
// average and VWAP levels filtered to the correct side of price.
func rangeAndIndicatorLevels(ps models.PriceStructure, ind models.IndicatorBundle, currentPrice float64) ([]float64, []float64) {
	var support, resistance []float64

	classify := func(level float64) {
		switch {
		case level <= 0:
		case level < currentPrice:
			support = append(support, level)
		case level > currentPrice:
			resistance = append(resistance, level)
		}
	}

	classify(ps.RangeLow)
	classify(ps.RangeHigh)
	classify(ind.EMAFast)
	classify(ind.EMASlow)
	classify(ind.SMA)
	classify(ind.VWAP)

	return support, resistance
}

// bound deduplicates, sorts nearest-first relative to current price and caps
// the list at MaxCandidates.
func (r *Resolver) bound(levelsIn []float64, currentPrice float64) []float64 {
	seen := make(map[float64]struct{}, len(levelsIn))
	out := make([]float64, 0, len(levelsIn))
	for _, l := range levelsIn {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}

	sort.Slice(out, func(i, j int) bool {
		return math.Abs(out[i]-currentPrice) < math.Abs(out[j]-currentPrice)
	})

	if len(out) > r.cfg.MaxCandidates {
		out = out[:r.cfg.MaxCandidates]
	}
	return out
}
