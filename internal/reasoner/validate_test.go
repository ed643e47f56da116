package reasoner

import (
	"strings"
	"testing"

	"github.com/altsignals/scenario-engine/models"
)

func validProposal() models.RawScenario {
	return models.RawScenario{
		Name:       "Support bounce",
		Bias:       "long",
		Confidence: 0.7,
		EntryLow:   93800,
		EntryHigh:  93800,
		StopLoss:   92000,
		Targets:    []float64{96500},
	}
}

func testCandidates() models.CandidateLevels {
	return models.CandidateLevels{
		Support:    []float64{93800, 92000},
		Resistance: []float64{96500, 98000},
	}
}

func TestValidateProposalsAccepts(t *testing.T) {
	err := ValidateProposals([]models.RawScenario{validProposal()}, testCandidates(), 0.2, 3)
	if err != nil {
		t.Fatalf("valid proposal rejected: %v", err)
	}
}

func TestValidateProposalsRejectsInventedPrice(t *testing.T) {
	p := validProposal()
	p.Targets = []float64{97123} // not a candidate level

	err := ValidateProposals([]models.RawScenario{p}, testCandidates(), 0.2, 3)
	if err == nil {
		t.Fatal("proposal with invented price was accepted")
	}
	if !strings.Contains(err.Error(), "not among candidate levels") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateProposalsToleranceWindow(t *testing.T) {
	p := validProposal()
	p.EntryLow = 93810 // 0.011% away from 93800
	p.EntryHigh = 93810

	if err := ValidateProposals([]models.RawScenario{p}, testCandidates(), 0.2, 3); err != nil {
		t.Errorf("price inside tolerance rejected: %v", err)
	}

	p.EntryLow = 94400 // 0.64% away, outside 0.2% tolerance
	p.EntryHigh = 94400
	if err := ValidateProposals([]models.RawScenario{p}, testCandidates(), 0.2, 3); err == nil {
		t.Error("price outside tolerance accepted")
	}
}

func TestValidateProposalsStructuralChecks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.RawScenario)
	}{
		{"bad bias", func(p *models.RawScenario) { p.Bias = "sideways" }},
		{"confidence above one", func(p *models.RawScenario) { p.Confidence = 1.4 }},
		{"inverted entry range", func(p *models.RawScenario) { p.EntryLow = 96500; p.EntryHigh = 93800 }},
		{"missing stop", func(p *models.RawScenario) { p.StopLoss = 0 }},
		{"no targets", func(p *models.RawScenario) { p.Targets = nil }},
		{"long stop above entry", func(p *models.RawScenario) { p.StopLoss = 96500 }},
		{"long target below entry", func(p *models.RawScenario) { p.Targets = []float64{92000} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProposal()
			tt.mutate(&p)
			if err := ValidateProposals([]models.RawScenario{p}, testCandidates(), 0.2, 3); err == nil {
				t.Error("malformed proposal accepted")
			}
		})
	}
}

func TestValidateProposalsShortDirection(t *testing.T) {
	p := models.RawScenario{
		Name:       "Rejection at resistance",
		Bias:       "short",
		Confidence: 0.6,
		EntryLow:   96500,
		EntryHigh:  96500,
		StopLoss:   98000,
		Targets:    []float64{93800},
	}

	if err := ValidateProposals([]models.RawScenario{p}, testCandidates(), 0.2, 3); err != nil {
		t.Errorf("valid short proposal rejected: %v", err)
	}
}

func TestValidateProposalsEmptyResponse(t *testing.T) {
	if err := ValidateProposals(nil, testCandidates(), 0.2, 3); err == nil {
		t.Error("empty proposal list accepted")
	}
}

func TestValidateProposalsWaivesMembershipWhenNoCandidates(t *testing.T) {
	// With an empty candidate set the membership check is waived but the
	// structural checks still apply.
	p := validProposal()
	if err := ValidateProposals([]models.RawScenario{p}, models.CandidateLevels{}, 0.2, 3); err != nil {
		t.Errorf("structurally valid proposal rejected without candidates: %v", err)
	}

	p.StopLoss = 0
	if err := ValidateProposals([]models.RawScenario{p}, models.CandidateLevels{}, 0.2, 3); err == nil {
		t.Error("structural check skipped when candidates empty")
	}
}
