// Package marketctx combines funding, open interest, sentiment and trend
// strength into a single directional bias score. Weights are context
// dependent: the sentiment contribution scales with the request timeframe
// and shrinks as trend strength rises.
package marketctx

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/models"
)

// Bias labels.
const (
	BiasLong    = "long"
	BiasShort   = "short"
	BiasNeutral = "neutral"
)

// fundingScale is the funding rate treated as a fully crowded positioning
// signal (0.05% per 8h interval).
const fundingScale = 0.0005

// Scorer computes the MarketContextScore for a snapshot.
type Scorer struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewScorer creates a market context scorer.
func NewScorer(cfg *config.Config) *Scorer {
	return &Scorer{
		cfg:    cfg,
		logger: log.With().Str("component", "context_scorer").Logger(),
	}
}

// Score combines the weighted factor contributions into one bias score.
func (s *Scorer) Score(snap models.MarketSnapshot, ind models.IndicatorBundle) models.MarketContextScore {
	var factors []models.FactorContribution

	// Trend strength follows the dominant directional index.
	trendDir := 1.0
	if ind.MinusDI > ind.PlusDI {
		trendDir = -1.0
	}
	trendWeight := 1.0
	factors = append(factors, models.FactorContribution{
		Name:         "trend",
		Weight:       trendWeight,
		Contribution: trendDir * ind.TrendStrength * trendWeight,
		Detail:       fmt.Sprintf("adx=%.1f", ind.ADX),
	})

	// Funding is read contrarian: heavily positive funding means crowded
	// longs, which weighs against further upside.
	fundingWeight := 0.6
	fundingSignal := clamp(-snap.FundingRate/fundingScale, -1, 1)
	factors = append(factors, models.FactorContribution{
		Name:         "funding",
		Weight:       fundingWeight,
		Contribution: fundingSignal * fundingWeight,
		Detail:       fmt.Sprintf("rate=%.5f", snap.FundingRate),
	})

	// Rising open interest confirms the trend direction, falling open
	// interest argues against it.
	oiWeight := 0.4
	if snap.OpenInterestAvg > 0 {
		oiRatio := snap.OpenInterest / snap.OpenInterestAvg
		oiSignal := clamp((oiRatio-1.0)*5, -1, 1)
		factors = append(factors, models.FactorContribution{
			Name:         "open_interest",
			Weight:       oiWeight,
			Contribution: trendDir * oiSignal * oiWeight,
			Detail:       fmt.Sprintf("ratio=%.3f", oiRatio),
		})
	}

	// Sentiment index is mean-reverting: extreme fear argues long, extreme
	// greed argues short. Its weight depends on timeframe and trend.
	sentimentSignal := (50.0 - snap.SentimentIndex) / 50.0
	sentimentWeight := SentimentWeight(s.cfg.SentimentBaseWeight, snap.Timeframe, ind.TrendStrength)
	factors = append(factors, models.FactorContribution{
		Name:         "sentiment",
		Weight:       sentimentWeight,
		Contribution: sentimentSignal * sentimentWeight,
		Detail:       fmt.Sprintf("index=%.0f", snap.SentimentIndex),
	})

	score := models.MarketContextScore{Factors: factors}
	var totalAbs float64
	for _, f := range factors {
		score.BiasScore += f.Contribution
		totalAbs += math.Abs(f.Contribution)
	}

	switch {
	case score.BiasScore > s.cfg.NeutralBand:
		score.Bias = BiasLong
	case score.BiasScore < -s.cfg.NeutralBand:
		score.Bias = BiasShort
	default:
		score.Bias = BiasNeutral
	}

	// Confidence grows with the magnitude of the net score and with the
	// agreement between contributions: factors cancelling each other out
	// leave agreement near zero even when individual signals are strong.
	if totalAbs > 0 {
		agreement := math.Abs(score.BiasScore) / totalAbs
		score.Confidence = clamp(agreement*math.Min(math.Abs(score.BiasScore), 1.0), 0, 1)
	}

	s.logger.Debug().
		Float64("bias_score", score.BiasScore).
		Str("bias", score.Bias).
		Float64("confidence", score.Confidence).
		Msg("Scored market context")

	return score
}

// SentimentWeight is the context-dependent weight of the sentiment index.
// Mean-reversion sentiment plays out over days, so daily and weekly
// timeframes scale the base weight up while sub-hour timeframes scale it
// down to noise level. A strong trend further discounts the weight: a
// contrarian signal against a strong trend is comparatively more dangerous.
func SentimentWeight(base float64, timeframe string, trendStrength float64) float64 {
	hours, err := models.TimeframeHours(timeframe)
	if err != nil {
		hours = 1
	}

	var multiplier float64
	switch {
	case hours >= 168:
		multiplier = 1.6
	case hours >= 24:
		multiplier = 1.4
	case hours >= 4:
		multiplier = 1.0
	case hours >= 1:
		multiplier = 0.7
	default:
		multiplier = 0.4
	}

	discount := 1.0 - 0.6*clamp(trendStrength, 0, 1)
	return base * multiplier * discount
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
