// Package liquidation bins forced-liquidation events into price clusters and
// derives the directional pressure they exert on price.
package liquidation

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/models"
)

// Pressure labels. Heavy long liquidation pushes price down, so the label
// describes the push direction, not a trade direction.
const (
	PressureBullish = "bullish"
	PressureBearish = "bearish"
	PressureNeutral = "neutral"
)

// dominanceThresholdPct: one side must carry more than this share of the
// liquidated volume before the pressure label leaves neutral.
const dominanceThresholdPct = 60.0

// Aggregator builds a LiquidationClusterSet from raw liquidation events.
type Aggregator struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewAggregator creates a liquidation cluster aggregator.
func NewAggregator(cfg *config.Config) *Aggregator {
	return &Aggregator{
		cfg:    cfg,
		logger: log.With().Str("component", "liquidation_aggregator").Logger(),
	}
}

// Aggregate bins the events into price clusters around currentPrice. Empty
// input yields a well-formed neutral result; callers never special-case
// absent liquidation data.
func (a *Aggregator) Aggregate(events []models.LiquidationEvent, currentPrice float64) models.LiquidationClusterSet {
	set := models.LiquidationClusterSet{Pressure: PressureNeutral}
	if len(events) == 0 || currentPrice <= 0 {
		return set
	}

	binSize := currentPrice * a.cfg.LiqBinPct
	if binSize <= 0 {
		return set
	}

	// Floor-based bin assignment. Rounding to the nearest bin would let an
	// event just above a bin midpoint flip bins between runs; floor keeps
	// identical input in identical bins.
	bins := make(map[float64]float64)
	var longVol, shortVol float64
	for _, ev := range events {
		binFloor := math.Floor(ev.Price/binSize) * binSize
		bins[binFloor] += ev.VolumeUSD

		switch ev.Side {
		case "long":
			longVol += ev.VolumeUSD
		case "short":
			shortVol += ev.VolumeUSD
		}
	}

	for price, vol := range bins {
		cluster := models.LiquidationCluster{
			Price:     price,
			VolumeUSD: vol,
			Intensity: a.classifyIntensity(vol),
		}
		if price >= currentPrice {
			set.ClustersAbove = append(set.ClustersAbove, cluster)
		} else {
			set.ClustersBelow = append(set.ClustersBelow, cluster)
		}
	}

	// Nearest-first on both sides.
	sort.Slice(set.ClustersAbove, func(i, j int) bool {
		return set.ClustersAbove[i].Price < set.ClustersAbove[j].Price
	})
	sort.Slice(set.ClustersBelow, func(i, j int) bool {
		return set.ClustersBelow[i].Price > set.ClustersBelow[j].Price
	})

	set.TotalVolumeUSD = longVol + shortVol
	if set.TotalVolumeUSD > 0 {
		set.LongLiquidatedPct = longVol / set.TotalVolumeUSD * 100
		set.ShortLiquidatedPct = shortVol / set.TotalVolumeUSD * 100
	}

	switch {
	case set.LongLiquidatedPct > dominanceThresholdPct:
		set.Pressure = PressureBearish
	case set.ShortLiquidatedPct > dominanceThresholdPct:
		set.Pressure = PressureBullish
	}

	set.SpikeDetected, set.SpikeMagnitude = a.detectSpike(events)

	a.logger.Debug().
		Int("events", len(events)).
		Float64("total_volume_usd", set.TotalVolumeUSD).
		Str("pressure", set.Pressure).
		Bool("spike", set.SpikeDetected).
		Msg("Aggregated liquidation clusters")

	return set
}

func (a *Aggregator) classifyIntensity(volumeUSD float64) string {
	switch {
	case volumeUSD >= a.cfg.LiqTierVeryHighUSD:
		return "very_high"
	case volumeUSD >= a.cfg.LiqTierHighUSD:
		return "high"
	case volumeUSD >= a.cfg.LiqTierMediumUSD:
		return "medium"
	default:
		return "low"
	}
}

// detectSpike compares the most recent hour of liquidation volume against
// the average hourly volume over the observed window. The averaging
// denominator is floored at one hour: dividing by a sub-hour window inflates
// the average and raises false alarms.
func (a *Aggregator) detectSpike(events []models.LiquidationEvent) (bool, float64) {
	if len(events) == 0 {
		return false, 0
	}

	newest := events[0].Timestamp
	oldest := events[0].Timestamp
	for _, ev := range events {
		if ev.Timestamp.After(newest) {
			newest = ev.Timestamp
		}
		if ev.Timestamp.Before(oldest) {
			oldest = ev.Timestamp
		}
	}

	windowHours := newest.Sub(oldest).Hours()
	if windowHours < 1.0 {
		windowHours = 1.0
	}

	total := lo.SumBy(events, func(ev models.LiquidationEvent) float64 { return ev.VolumeUSD })
	recent := lo.SumBy(events, func(ev models.LiquidationEvent) float64 {
		if newest.Sub(ev.Timestamp) <= time.Hour {
			return ev.VolumeUSD
		}
		return 0
	})

	avgHourly := total / windowHours
	if avgHourly <= 0 {
		return false, 0
	}

	magnitude := recent / avgHourly
	return magnitude >= a.cfg.LiqSpikeFactor, magnitude
}
