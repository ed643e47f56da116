package reasoner

import (
	"fmt"

	json "github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonrepair"
	"github.com/openai/openai-go/v2"

	"github.com/altsignals/scenario-engine/models"
)

// proposalEnvelope is the fixed response schema the model is instructed to
// produce.
type proposalEnvelope struct {
	Scenarios []models.RawScenario `json:"scenarios"`
}

// parseResult extracts and decodes the completion content. Responses are run
// through jsonrepair first; models occasionally wrap JSON in markdown fences
// or leave trailing commas.
func parseResult[T any](completion *openai.ChatCompletion) (T, error) {
	var result T
	if len(completion.Choices) == 0 {
		return result, fmt.Errorf("completion has no choices")
	}

	content := completion.Choices[0].Message.Content
	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return result, fmt.Errorf("failed to repair JSON: %w", err)
	}

	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return result, fmt.Errorf("failed to parse reasoner result: %w", err)
	}
	return result, nil
}
