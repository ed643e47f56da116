package reasoner

import (
	"fmt"
	"math"

	"github.com/altsignals/scenario-engine/models"
)

// ValidateProposals enforces the select-from-candidates contract on a raw
// reasoner response. Every entry/stop/target price must match one of the
// provided candidate levels within tolerancePct; when the candidate set is
// empty (a logged data-quality condition) the membership check is waived and
// only structural sanity applies.
func ValidateProposals(proposals []models.RawScenario, candidates models.CandidateLevels, tolerancePct float64, maxScenarios int) error {
	if len(proposals) == 0 {
		return fmt.Errorf("no scenario proposals in response")
	}
	if len(proposals) > maxScenarios+2 {
		return fmt.Errorf("got %d proposals, expected at most %d", len(proposals), maxScenarios+2)
	}

	allLevels := candidates.All()

	for i, p := range proposals {
		if p.Bias != "long" && p.Bias != "short" {
			return fmt.Errorf("proposal %d: invalid bias %q", i, p.Bias)
		}
		if p.Confidence < 0 || p.Confidence > 1 {
			return fmt.Errorf("proposal %d: confidence %v outside [0,1]", i, p.Confidence)
		}
		if p.EntryLow <= 0 || p.EntryHigh <= 0 || p.EntryLow > p.EntryHigh {
			return fmt.Errorf("proposal %d: malformed entry range [%v, %v]", i, p.EntryLow, p.EntryHigh)
		}
		if p.StopLoss <= 0 {
			return fmt.Errorf("proposal %d: missing stop loss", i)
		}
		if len(p.Targets) == 0 {
			return fmt.Errorf("proposal %d: no take-profit targets", i)
		}

		if err := checkDirection(p); err != nil {
			return fmt.Errorf("proposal %d: %w", i, err)
		}

		if len(allLevels) == 0 {
			continue
		}
		for _, price := range proposalPrices(p) {
			if !matchesCandidate(price, allLevels, tolerancePct) {
				return fmt.Errorf("proposal %d: price %v not among candidate levels", i, price)
			}
		}
	}

	return nil
}

// checkDirection verifies the stop and targets sit on the correct side of
// the entry zone for the proposal's bias.
func checkDirection(p models.RawScenario) error {
	if p.Bias == "long" {
		if p.StopLoss >= p.EntryLow {
			return fmt.Errorf("long stop %v not below entry %v", p.StopLoss, p.EntryLow)
		}
		for _, t := range p.Targets {
			if t <= p.EntryHigh {
				return fmt.Errorf("long target %v not above entry %v", t, p.EntryHigh)
			}
		}
		return nil
	}
	if p.StopLoss <= p.EntryHigh {
		return fmt.Errorf("short stop %v not above entry %v", p.StopLoss, p.EntryHigh)
	}
	for _, t := range p.Targets {
		if t >= p.EntryLow {
			return fmt.Errorf("short target %v not below entry %v", t, p.EntryLow)
		}
	}
	return nil
}

func proposalPrices(p models.RawScenario) []float64 {
	prices := []float64{p.EntryLow, p.EntryHigh, p.StopLoss}
	return append(prices, p.Targets...)
}

func matchesCandidate(price float64, levels []float64, tolerancePct float64) bool {
	for _, level := range levels {
		if level <= 0 {
			continue
		}
		if math.Abs(price-level)/level*100 <= tolerancePct {
			return true
		}
	}
	return false
}
