package models

import "context"

// MarketDataGateway supplies the raw telemetry for one (symbol, timeframe)
// pair. Implementations are expected to degrade gracefully: missing
// liquidation events or sentiment data must not fail the snapshot.
type MarketDataGateway interface {
	Snapshot(ctx context.Context, symbol, timeframe string) (MarketSnapshot, error)
}

// ScenarioReasoner is the nondeterministic reasoning step. It must only
// select prices from the candidate levels in the request; implementations
// reject and retry proposals that invent arbitrary prices. A deterministic
// rule-based stub can substitute it in tests.
type ScenarioReasoner interface {
	Generate(ctx context.Context, req ReasoningRequest) ([]RawScenario, error)
}
