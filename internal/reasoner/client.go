// Package reasoner drives the generative reasoning step. One structured
// chat call proposes 2-4 trade scenarios constrained to the candidate price
// levels; malformed or contract-violating responses are retried and the
// request fails with ErrReasoningUnavailable once retries are exhausted. No
// fallback scenario is ever fabricated in place of a failed call.
package reasoner

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/models"
)

// Client implements models.ScenarioReasoner over an OpenAI-compatible API.
type Client struct {
	client       openai.Client
	model        string
	temperature  float64
	maxRetries   uint64
	tolerancePct float64
	logger       zerolog.Logger
}

// NewClient creates a reasoner client from configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for the reasoning step")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}

	return &Client{
		client:       openai.NewClient(opts...),
		model:        cfg.OpenAIModel,
		temperature:  cfg.LLMTemperature,
		maxRetries:   uint64(cfg.ReasonerMaxRetries),
		tolerancePct: cfg.LevelTolerancePct,
		logger:       log.With().Str("component", "scenario_reasoner").Logger(),
	}, nil
}

// Generate issues the structured call and validates the response against the
// select-from-candidates contract. Format and contract failures are retried;
// exhaustion surfaces ErrReasoningUnavailable.
func (c *Client) Generate(ctx context.Context, req models.ReasoningRequest) ([]models.RawScenario, error) {
	systemPrompt := buildSystemPrompt(req)
	userPrompt, err := buildUserPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("building user prompt: %w", err)
	}

	param := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(c.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: lo.ToPtr(shared.NewResponseFormatJSONObjectParam()),
		},
	}

	var proposals []models.RawScenario
	operation := func() error {
		completion, err := c.client.Chat.Completions.New(ctx, param)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("completion call failed: %w", err)
		}

		envelope, err := parseResult[proposalEnvelope](completion)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Reasoner response failed to parse, retrying")
			return err
		}

		if err := ValidateProposals(envelope.Scenarios, req.Candidates, c.tolerancePct, req.MaxScenarios); err != nil {
			c.logger.Warn().Err(err).Msg("Reasoner response violated contract, retrying")
			return err
		}

		proposals = envelope.Scenarios
		return nil
	}

	strategy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, strategy); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Unwrap()
		}
		return nil, fmt.Errorf("%w: %v", models.ErrReasoningUnavailable, err)
	}

	c.logger.Info().Int("proposals", len(proposals)).Msg("Reasoner returned valid proposals")
	return proposals, nil
}
