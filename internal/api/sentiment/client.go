// Package sentiment fetches the crypto Fear & Greed index from the
// alternative.me API. The index feeds the sentiment contribution of the
// market context scorer; callers treat a failed fetch as "no signal", never
// as a request failure.
package sentiment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/altsignals/scenario-engine/internal/platform/http"
)

// NeutralIndex is returned when sentiment data is unavailable.
const NeutralIndex = 50.0

// Client is the Fear & Greed index client.
type Client struct {
	baseURL    string
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Client.
type ClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewClient creates a new Fear & Greed index client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.alternative.me"
	}

	return &Client{
		baseURL: opts.BaseURL,
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:        opts.RequestTimeout,
			RequestsPerSec: opts.RequestsPerSec,
		}),
		logger: log.With().Str("component", "sentiment_client").Logger(),
	}
}

type fngResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
		Timestamp      string `json:"timestamp"`
	} `json:"data"`
}

// CurrentIndex returns the latest Fear & Greed value on the 0-100 scale.
func (c *Client) CurrentIndex(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/fng/?limit=1", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NeutralIndex, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return NeutralIndex, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NeutralIndex, fmt.Errorf("reading response body: %w", err)
	}

	var data fngResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing Fear & Greed JSON")
		return NeutralIndex, fmt.Errorf("parsing JSON: %w", err)
	}

	if len(data.Data) == 0 {
		return NeutralIndex, fmt.Errorf("empty Fear & Greed response")
	}

	value, err := strconv.ParseFloat(data.Data[0].Value, 64)
	if err != nil {
		return NeutralIndex, fmt.Errorf("parsing index value %q: %w", data.Data[0].Value, err)
	}

	c.logger.Debug().Float64("value", value).Str("classification", data.Data[0].Classification).Msg("Fetched sentiment index")
	return value, nil
}
