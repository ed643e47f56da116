// Package engine orchestrates one scenario-analysis request: snapshot
// assembly, concurrent leaf analyzers, candidate resolution, the reasoning
// step and post-processing.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/internal/indicators"
	"github.com/altsignals/scenario-engine/internal/levels"
	"github.com/altsignals/scenario-engine/internal/liquidation"
	"github.com/altsignals/scenario-engine/internal/marketctx"
	"github.com/altsignals/scenario-engine/internal/postprocess"
	"github.com/altsignals/scenario-engine/internal/structure"
	"github.com/altsignals/scenario-engine/models"
)

// AnalysisRequest is the caller-facing input contract.
type AnalysisRequest struct {
	Symbol       string `json:"symbol"`
	Timeframe    string `json:"timeframe"`
	MaxScenarios int    `json:"max_scenarios"`
}

// Engine wires the pipeline together. It holds no per-request state; every
// snapshot and derived artifact is owned by the request that created it, so
// concurrent requests for different symbols never share mutable data.
type Engine struct {
	cfg       *config.Config
	gateway   models.MarketDataGateway
	reasoner  models.ScenarioReasoner
	structure *structure.Analyzer
	clusters  *liquidation.Aggregator
	scorer    *marketctx.Scorer
	resolver  *levels.Resolver
	post      *postprocess.Processor
	logger    zerolog.Logger
}

// New creates an engine over the given gateway and reasoner.
func New(cfg *config.Config, gateway models.MarketDataGateway, reasoner models.ScenarioReasoner) *Engine {
	return &Engine{
		cfg:       cfg,
		gateway:   gateway,
		reasoner:  reasoner,
		structure: structure.NewAnalyzer(cfg),
		clusters:  liquidation.NewAggregator(cfg),
		scorer:    marketctx.NewScorer(cfg),
		resolver:  levels.NewResolver(cfg),
		post:      postprocess.NewProcessor(cfg),
		logger:    log.With().Str("component", "scenario_engine").Logger(),
	}
}

// Analyze runs the full pipeline for one request.
func (e *Engine) Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalysisResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	snap, err := e.gateway.Snapshot(ctx, req.Symbol, req.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamDataUnavailable, err)
	}
	if len(snap.Candles) == 0 || snap.CurrentPrice <= 0 {
		return nil, fmt.Errorf("%w: snapshot missing candles or price", models.ErrUpstreamDataUnavailable)
	}

	ind := indicators.Compute(snap.Candles, e.cfg)

	// The three leaf analyzers are independent; fan out, then fan in before
	// candidate resolution. Everything after this point is sequential by
	// data dependency.
	var (
		ps    models.PriceStructure
		liq   models.LiquidationClusterSet
		score models.MarketContextScore
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		ps = e.structure.Compute(snap.Candles, snap.CurrentPrice, ind)
		return nil
	})
	g.Go(func() error {
		liq = e.clusters.Aggregate(snap.LiquidationEvents, snap.CurrentPrice)
		return nil
	})
	g.Go(func() error {
		score = e.scorer.Score(snap, ind)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates, err := e.resolver.Resolve(snap.Candles, ps, ind, snap.CurrentPrice)
	if err != nil {
		if !errors.Is(err, models.ErrNoCandidateLevels) {
			return nil, err
		}
		// Data-quality event, not a failure: the reasoning step is told
		// explicitly that levels are unavailable.
		e.logger.Warn().
			Str("symbol", req.Symbol).
			Str("timeframe", req.Timeframe).
			Msg("No candidate levels derived from market data")
	}

	reasonCtx, cancel := e.reasonContext(ctx)
	defer cancel()

	raw, err := e.reasoner.Generate(reasonCtx, models.ReasoningRequest{
		Summary: models.MarketSummary{
			Symbol:         snap.Symbol,
			Timeframe:      snap.Timeframe,
			CurrentPrice:   snap.CurrentPrice,
			FundingRate:    snap.FundingRate,
			OpenInterest:   snap.OpenInterest,
			SentimentIndex: snap.SentimentIndex,
			Indicators:     ind,
			Structure:      ps,
			Liquidations:   liq,
			Context:        score,
		},
		Candidates:   candidates,
		MaxScenarios: req.MaxScenarios,
	})
	if err != nil {
		return nil, err
	}

	scenarios := e.post.Finalize(raw, snap, ind, req.MaxScenarios)

	e.logger.Info().
		Str("symbol", req.Symbol).
		Str("timeframe", req.Timeframe).
		Int("scenarios", len(scenarios)).
		Str("bias", score.Bias).
		Msg("Analysis complete")

	return &models.AnalysisResult{
		Symbol:        snap.Symbol,
		Timeframe:     snap.Timeframe,
		CurrentPrice:  snap.CurrentPrice,
		MarketContext: score,
		Scenarios:     scenarios,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

func (e *Engine) reasonContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.ReasonerTimeout > 0 {
		return context.WithTimeout(ctx, e.cfg.ReasonerTimeout)
	}
	return context.WithCancel(ctx)
}

func validateRequest(req AnalysisRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !models.ValidTimeframe(req.Timeframe) {
		return fmt.Errorf("invalid timeframe %q", req.Timeframe)
	}
	if req.MaxScenarios < 1 || req.MaxScenarios > 5 {
		return fmt.Errorf("max_scenarios %d outside [1, 5]", req.MaxScenarios)
	}
	return nil
}
