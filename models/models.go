package models

import (
	"time"
)

// Candle represents a single price candle.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// LiquidationEvent is a single forced-liquidation print on the exchange.
// Side is the position side that was liquidated ("long" or "short").
type LiquidationEvent struct {
	Price     float64   `json:"price"`
	Side      string    `json:"side"`
	VolumeUSD float64   `json:"volume_usd"`
	Timestamp time.Time `json:"timestamp"`
}

// MarketSnapshot is the immutable per-request bundle of raw market telemetry.
// It is created once per analysis call, never mutated, and owned exclusively
// by the request that assembled it.
type MarketSnapshot struct {
	Symbol            string             `json:"symbol"`
	Timeframe         string             `json:"timeframe"`
	CurrentPrice      float64            `json:"current_price"`
	Candles           []Candle           `json:"candles"` // ordered oldest -> newest
	FundingRate       float64            `json:"funding_rate"`
	OpenInterest      float64            `json:"open_interest"`
	OpenInterestAvg   float64            `json:"open_interest_avg"` // average over the observed history window
	LiquidationEvents []LiquidationEvent `json:"liquidation_events"`
	SentimentIndex    float64            `json:"sentiment_index"` // 0-100, 50 when unavailable
}

// IndicatorBundle holds indicator values derived once from the snapshot's
// candles and shared read-only by every analyzer.
type IndicatorBundle struct {
	ATR           float64 `json:"atr"`
	ATRPct        float64 `json:"atr_pct"` // ATR as percent of current close
	EMAFast       float64 `json:"ema_fast"`
	EMASlow       float64 `json:"ema_slow"`
	SMA           float64 `json:"sma"`
	RSI           float64 `json:"rsi"`
	MACDHist      float64 `json:"macd_hist"`
	VWAP          float64 `json:"vwap"`
	ADX           float64 `json:"adx"`
	PlusDI        float64 `json:"plus_di"`
	MinusDI       float64 `json:"minus_di"`
	TrendStrength float64 `json:"trend_strength"` // 0-1, derived from ADX
}

// SwingPoint is a local price extremum. RecencyIndex is the candle index the
// pivot occurred at; a higher index means a more recent pivot.
type SwingPoint struct {
	Price        float64 `json:"price"`
	RecencyIndex int     `json:"recency_index"`
	DistancePct  float64 `json:"distance_pct"` // signed distance from current price
}

// VolatilityRegime classifies ATR-as-percent-of-price. The five labels are
// mutually exclusive and exhaustive.
type VolatilityRegime string

const (
	VolVeryLow     VolatilityRegime = "very_low"
	VolCompression VolatilityRegime = "compression"
	VolNormal      VolatilityRegime = "normal"
	VolExpansion   VolatilityRegime = "expansion"
	VolVeryHigh    VolatilityRegime = "very_high"
)

// PriceStructure is the derived, read-only view of price geometry.
// Swing lists are ordered most-recent-first, never by price magnitude.
type PriceStructure struct {
	SwingHighs          []SwingPoint     `json:"swing_highs"`
	SwingLows           []SwingPoint     `json:"swing_lows"`
	RangeHigh           float64          `json:"range_high"`
	RangeLow            float64          `json:"range_low"`
	PositionInRange     float64          `json:"position_in_range"` // may exceed [0,1] on breakout
	TrendState          string           `json:"trend_state"`
	VolatilityRegime    VolatilityRegime `json:"volatility_regime"`
	DistToResistancePct float64          `json:"dist_to_resistance_pct"`
	DistToSupportPct    float64          `json:"dist_to_support_pct"`
}

// LiquidationCluster is a price bin of aggregated forced liquidations.
// Price is the bin-floor level.
type LiquidationCluster struct {
	Price     float64 `json:"price"`
	Intensity string  `json:"intensity"` // very_high, high, medium, low
	VolumeUSD float64 `json:"volume_usd"`
}

// LiquidationClusterSet is the derived view of liquidation pressure around
// the current price. Pressure describes which way the flushes push price
// (heavy long liquidation -> bearish pressure), not a trade direction.
type LiquidationClusterSet struct {
	ClustersAbove      []LiquidationCluster `json:"clusters_above"` // nearest-first
	ClustersBelow      []LiquidationCluster `json:"clusters_below"` // nearest-first
	SpikeDetected      bool                 `json:"spike_detected"`
	SpikeMagnitude     float64              `json:"spike_magnitude"`
	Pressure           string               `json:"pressure"` // bullish, bearish, neutral
	LongLiquidatedPct  float64              `json:"long_liquidated_pct"`
	ShortLiquidatedPct float64              `json:"short_liquidated_pct"`
	TotalVolumeUSD     float64              `json:"total_volume_usd"`
}

// FactorContribution is one weighted input to the context bias score.
type FactorContribution struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"` // signed, already weighted
	Weight       float64 `json:"weight"`
	Detail       string  `json:"detail,omitempty"`
}

// MarketContextScore combines funding, open interest, sentiment and trend
// strength into a single directional bias.
type MarketContextScore struct {
	BiasScore  float64              `json:"bias_score"`
	Factors    []FactorContribution `json:"factors"`
	Bias       string               `json:"bias"` // long, short, neutral
	Confidence float64              `json:"confidence"`
}

// CandidateLevels are the bounded support/resistance lists the reasoning
// step is allowed to select prices from. Both lists are nearest-first.
type CandidateLevels struct {
	Support          []float64 `json:"support"`
	Resistance       []float64 `json:"resistance"`
	SupportSource    string    `json:"support_source,omitempty"`
	ResistanceSource string    `json:"resistance_source,omitempty"`
}

// Empty reports whether no candidate level survived any fallback tier.
func (c CandidateLevels) Empty() bool {
	return len(c.Support) == 0 && len(c.Resistance) == 0
}

// All returns the union of support and resistance levels.
func (c CandidateLevels) All() []float64 {
	all := make([]float64, 0, len(c.Support)+len(c.Resistance))
	all = append(all, c.Support...)
	all = append(all, c.Resistance...)
	return all
}

// RawScenario is one proposal as returned by the reasoning step, before
// post-processing derives the final contract fields.
type RawScenario struct {
	Name              string    `json:"name"`
	Bias              string    `json:"bias"` // long, short
	Confidence        float64   `json:"confidence"`
	EntryLow          float64   `json:"entry_low"`
	EntryHigh         float64   `json:"entry_high"`
	StopLoss          float64   `json:"stop_loss"`
	StopRationale     string    `json:"stop_rationale"`
	Targets           []float64 `json:"targets"`
	LeverageSuggested int       `json:"leverage_suggested"`
	LeverageMaxSafe   int       `json:"leverage_max_safe"`
	SupportingFactors []string  `json:"supporting_factors"`
	OpposingFactors   []string  `json:"opposing_factors"`
	EntryTrigger      string    `json:"entry_trigger"`
	NoTradeConditions []string  `json:"no_trade_conditions"`
}

// PriceRange is an inclusive entry zone.
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// StopLoss carries the stop level together with its rationale.
type StopLoss struct {
	Price     float64 `json:"price"`
	Rationale string  `json:"rationale,omitempty"`
}

// TakeProfit is one ordered target with its risk/reward ratio.
type TakeProfit struct {
	Price      float64 `json:"price"`
	RiskReward float64 `json:"risk_reward"`
}

// LeverageGuidance is advisory only; execution is a downstream concern.
type LeverageGuidance struct {
	Recommended int `json:"recommended"`
	MaxSafe     int `json:"max_safe"`
}

// Scenario is the unit returned to callers: a fully annotated trade setup.
// Scenarios are produced fresh per request and never persisted or mutated
// after creation.
type Scenario struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Bias              string           `json:"bias"`
	Confidence        float64          `json:"confidence"`
	Entry             PriceRange       `json:"entry"`
	StopLoss          StopLoss         `json:"stop_loss"`
	Targets           []TakeProfit     `json:"targets"`
	Leverage          LeverageGuidance `json:"leverage"`
	SupportingFactors []string         `json:"supporting_factors"`
	OpposingFactors   []string         `json:"opposing_factors"`
	StopPctOfEntry    float64          `json:"stop_pct_of_entry"`
	ATRMultipleStop   float64          `json:"atr_multiple_stop"`
	TimeValidHours    float64          `json:"time_valid_hours"`
	EntryTrigger      string           `json:"entry_trigger"`
	NoTradeConditions []string         `json:"no_trade_conditions"`
}

// AnalysisResult is the full response produced for one (symbol, timeframe)
// request.
type AnalysisResult struct {
	Symbol        string             `json:"symbol"`
	Timeframe     string             `json:"timeframe"`
	CurrentPrice  float64            `json:"current_price"`
	MarketContext MarketContextScore `json:"market_context"`
	Scenarios     []Scenario         `json:"scenarios"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// MarketSummary is the compact structured object handed to the reasoning
// step. It deliberately excludes the raw candle series.
type MarketSummary struct {
	Symbol         string                `json:"symbol"`
	Timeframe      string                `json:"timeframe"`
	CurrentPrice   float64               `json:"current_price"`
	FundingRate    float64               `json:"funding_rate"`
	OpenInterest   float64               `json:"open_interest"`
	SentimentIndex float64               `json:"sentiment_index"`
	Indicators     IndicatorBundle       `json:"indicators"`
	Structure      PriceStructure        `json:"structure"`
	Liquidations   LiquidationClusterSet `json:"liquidations"`
	Context        MarketContextScore    `json:"context"`
}

// ReasoningRequest bundles everything the reasoning step may look at.
type ReasoningRequest struct {
	Summary      MarketSummary   `json:"summary"`
	Candidates   CandidateLevels `json:"candidates"`
	MaxScenarios int             `json:"max_scenarios"`
}
