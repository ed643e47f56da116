// Package postprocess adapts raw reasoner proposals into the final scenario
// contract: derived risk fields, bounded validity, long/short diversity and
// descending-confidence ordering.
package postprocess

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/models"
)

// Validity bounds in hours. The lower bound avoids scenarios that expire
// before anyone can act on them, the upper bound avoids scenarios that stay
// "valid" indefinitely.
const (
	MinValidHours = 2.0
	MaxValidHours = 336.0
)

// Processor finalizes raw scenario proposals.
type Processor struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewProcessor creates a scenario post-processor.
func NewProcessor(cfg *config.Config) *Processor {
	return &Processor{
		cfg:    cfg,
		logger: log.With().Str("component", "scenario_postprocessor").Logger(),
	}
}

// Finalize converts raw proposals into the output contract. When more
// proposals exist than maxScenarios, the selection keeps the best long and
// the best short before filling by confidence; fewer proposals than
// requested are returned as-is, never padded.
func (p *Processor) Finalize(raw []models.RawScenario, snap models.MarketSnapshot, ind models.IndicatorBundle, maxScenarios int) []models.Scenario {
	selected := selectDiverse(raw, maxScenarios)
	if len(selected) < maxScenarios && len(raw) < maxScenarios {
		p.logger.Debug().
			Int("requested", maxScenarios).
			Int("available", len(raw)).
			Msg("Fewer proposals than requested, returning what is available")
	}

	validHours := p.timeValidHours(snap.Timeframe)

	scenarios := make([]models.Scenario, 0, len(selected))
	for i, r := range selected {
		scenarios = append(scenarios, p.finalizeOne(r, snap, ind, validHours, i))
	}

	sort.SliceStable(scenarios, func(i, j int) bool {
		return scenarios[i].Confidence > scenarios[j].Confidence
	})
	return scenarios
}

func (p *Processor) finalizeOne(r models.RawScenario, snap models.MarketSnapshot, ind models.IndicatorBundle, validHours float64, seq int) models.Scenario {
	entryMid := (r.EntryLow + r.EntryHigh) / 2

	s := models.Scenario{
		ID:                fmt.Sprintf("%s-%s-%s-%d", snap.Symbol, snap.Timeframe, r.Bias, seq+1),
		Name:              r.Name,
		Bias:              r.Bias,
		Confidence:        clamp01(r.Confidence),
		Entry:             models.PriceRange{Low: r.EntryLow, High: r.EntryHigh},
		StopLoss:          models.StopLoss{Price: r.StopLoss, Rationale: r.StopRationale},
		Leverage:          sanitizeLeverage(r.LeverageSuggested, r.LeverageMaxSafe),
		SupportingFactors: r.SupportingFactors,
		OpposingFactors:   r.OpposingFactors,
		TimeValidHours:    validHours,
		EntryTrigger:      r.EntryTrigger,
		NoTradeConditions: r.NoTradeConditions,
	}

	risk := math.Abs(entryMid - r.StopLoss)
	if entryMid > 0 {
		s.StopPctOfEntry = risk / entryMid * 100
	}
	if ind.ATR > 0 {
		s.ATRMultipleStop = risk / ind.ATR
	}

	for _, target := range r.Targets {
		tp := models.TakeProfit{Price: target}
		if risk > 0 {
			tp.RiskReward = math.Abs(target-entryMid) / risk
		}
		s.Targets = append(s.Targets, tp)
	}

	return s
}

// timeValidHours derives scenario validity from the timeframe's duration,
// clamped to [MinValidHours, MaxValidHours]. An unparseable timeframe falls
// back to the lower bound rather than failing the request this late.
func (p *Processor) timeValidHours(timeframe string) float64 {
	hours, err := models.TimeframeHours(timeframe)
	if err != nil {
		p.logger.Warn().Str("timeframe", timeframe).Msg("Unparseable timeframe in post-processing")
		return MinValidHours
	}

	valid := hours * p.cfg.TimeValidMultiplier
	if valid < MinValidHours {
		return MinValidHours
	}
	if valid > MaxValidHours {
		return MaxValidHours
	}
	return valid
}

// selectDiverse picks up to maxScenarios proposals. A pure top-N cut can
// return all-long or all-short sets; when both biases exist among the
// proposals, the highest-confidence scenario on each side is retained first
// and the remaining slots fill by confidence.
func selectDiverse(raw []models.RawScenario, maxScenarios int) []models.RawScenario {
	if len(raw) <= maxScenarios {
		return raw
	}

	byConfidence := make([]models.RawScenario, len(raw))
	copy(byConfidence, raw)
	sort.SliceStable(byConfidence, func(i, j int) bool {
		return byConfidence[i].Confidence > byConfidence[j].Confidence
	})

	bestLong, bestShort := -1, -1
	for i, r := range byConfidence {
		if r.Bias == "long" && bestLong == -1 {
			bestLong = i
		}
		if r.Bias == "short" && bestShort == -1 {
			bestShort = i
		}
	}

	taken := make(map[int]bool, maxScenarios)
	var out []models.RawScenario
	if bestLong >= 0 && bestShort >= 0 {
		first, second := bestLong, bestShort
		if byConfidence[second].Confidence > byConfidence[first].Confidence {
			first, second = second, first
		}
		out = append(out, byConfidence[first])
		taken[first] = true
		if maxScenarios > 1 {
			out = append(out, byConfidence[second])
			taken[second] = true
		}
	}

	for i := 0; i < len(byConfidence) && len(out) < maxScenarios; i++ {
		if taken[i] {
			continue
		}
		out = append(out, byConfidence[i])
		taken[i] = true
	}

	return out
}

func sanitizeLeverage(recommended, maxSafe int) models.LeverageGuidance {
	if maxSafe < 1 {
		maxSafe = 1
	}
	if recommended < 1 {
		recommended = 1
	}
	if recommended > maxSafe {
		recommended = maxSafe
	}
	return models.LeverageGuidance{Recommended: recommended, MaxSafe: maxSafe}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
