package reasoner

import (
	"fmt"
	"strings"

	json "github.com/bytedance/sonic"

	"github.com/altsignals/scenario-engine/models"
)

// buildSystemPrompt states the role, the output schema and the one
// non-negotiable rule: prices are selected from the candidate lists, never
// invented.
func buildSystemPrompt(req models.ReasoningRequest) string {
	var sb strings.Builder

	sb.WriteString(`You are a derivatives market analyst producing trade scenarios for a crypto futures desk.

# Task
From the structured market summary you receive, propose between 2 and `)
	sb.WriteString(fmt.Sprintf("%d", maxProposals(req.MaxScenarios)))
	sb.WriteString(` trade scenarios. Include at least one long and one short scenario whenever the data plausibly supports both.

# Non-negotiable pricing rule
Every price you output (entry_low, entry_high, stop_loss, every target) MUST be one of the candidate support/resistance levels provided in the request. You may not invent, interpolate or round prices. Responses containing prices outside the candidate lists are rejected.
`)

	if req.Candidates.Empty() {
		sb.WriteString(`
# Data-quality notice
No candidate levels could be derived from the current market data. State this limitation in each scenario's opposing factors, keep confidence at or below 0.3, and anchor prices conservatively near the current price.
`)
	}

	sb.WriteString(`
# Scenario requirements
- bias: "long" or "short".
- confidence: 0.0-1.0, your conviction given the summary.
- entry_low <= entry_high: the entry zone.
- stop_loss with a one-sentence stop_rationale tied to structure (for longs the stop sits below the entry zone, for shorts above).
- targets: 1-3 take-profit prices ordered from nearest to furthest.
- leverage_suggested and leverage_max_safe: integers, conservative in high volatility regimes.
- supporting_factors / opposing_factors: short phrases referencing the summary fields.
- entry_trigger: the observable condition that activates the entry.
- no_trade_conditions: conditions under which the scenario should be ignored.

# Output format
Respond with a single JSON object, no prose, matching:
{"scenarios": [{"name": "...", "bias": "long", "confidence": 0.0, "entry_low": 0, "entry_high": 0, "stop_loss": 0, "stop_rationale": "...", "targets": [0], "leverage_suggested": 0, "leverage_max_safe": 0, "supporting_factors": ["..."], "opposing_factors": ["..."], "entry_trigger": "...", "no_trade_conditions": ["..."]}]}
`)

	return sb.String()
}

// buildUserPrompt serializes the compact market summary and the candidate
// levels. The raw candle series is deliberately not included.
func buildUserPrompt(req models.ReasoningRequest) (string, error) {
	payload, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling reasoning request: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Market summary and candidate levels:\n\n")
	sb.Write(payload)
	sb.WriteString("\n\nProduce the scenarios now.")
	return sb.String(), nil
}

// maxProposals caps what we ask the model for; the post-processor trims to
// the caller's max_scenarios with diversity retention.
func maxProposals(maxScenarios int) int {
	if maxScenarios < 2 {
		return 2
	}
	if maxScenarios > 4 {
		return 4
	}
	return maxScenarios
}
