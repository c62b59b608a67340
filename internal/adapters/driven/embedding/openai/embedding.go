// Package openai embeds text through the OpenAI embeddings API. The
// base URL is configurable, so Azure OpenAI and other compatible
// endpoints work too.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*Client)(nil)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "text-embedding-3-small"
	DefaultHTTPTimeout = 60 * time.Second

	// DefaultRequestRate is conservative: each request carries up to
	// maxBatchSize inputs, so few requests are needed (requests/second).
	DefaultRequestRate = 2.0

	// maxBatchSize caps inputs per API call to bound request size and
	// memory. The API accepts more, but large batches hit token limits.
	maxBatchSize = 128

	// maxRetries bounds re-attempts on transient failures before the
	// client reports domain.ErrEmbeddingUnavailable.
	maxRetries  = 3
	baseBackoff = 500 * time.Millisecond
)

// lookupDimensions returns the native vector size of a known model.
// Unknown models report text-embedding-3-small's size, which is also
// what an unpinned deployment serves.
func lookupDimensions(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	default:
		return 1536
	}
}

// supportsCustomDimensions reports whether a model accepts the
// dimensions request parameter. Only the third-generation models do.
func supportsCustomDimensions(model string) bool {
	return model == "text-embedding-3-small" || model == "text-embedding-3-large"
}

// Config carries the knobs for the OpenAI adapter. Zero values fall
// back to the defaults above; only APIKey is mandatory.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	HTTPTimeout time.Duration

	// Dimensions overrides the model's native vector size. Ignored by
	// models that predate the dimensions parameter.
	Dimensions int

	// RequestRate throttles API calls (requests per second).
	RequestRate float64

	// Normalize scales returned vectors to unit length.
	Normalize bool
}

// withDefaults fills the optional fields.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.RequestRate == 0 {
		c.RequestRate = DefaultRequestRate
	}
	if c.Dimensions == 0 {
		c.Dimensions = lookupDimensions(c.Model)
	}
	return c
}

// Client turns text into vectors via the /embeddings endpoint, batching
// inputs and retrying transient failures.
type Client struct {
	client    *http.Client
	limiter   *rate.Limiter
	baseURL   string
	apiKey    string
	model     string
	dims      int
	normalize bool
	backoff   time.Duration
}

// wireRequest, wireVector and wireError mirror the provider's wire
// format.
type wireRequest struct {
	Model  string   `json:"model"`
	Inputs []string `json:"input"`
	Dims   int      `json:"dimensions,omitempty"`
}

type wireVector struct {
	Vector []float64 `json:"embedding"`
	Index  int       `json:"index"`
}

type wireError struct {
	Message string `json:"message"`
}

type wireResponse struct {
	Data  []wireVector `json:"data"`
	Error *wireError   `json:"error,omitempty"`
}

// NewClient builds the adapter. The API key is the only required
// field; everything else defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	cfg = cfg.withDefaults()

	return &Client{
		client:    &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestRate), 1),
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dims:      cfg.Dimensions,
		normalize: cfg.Normalize,
		backoff:   baseBackoff,
	}, nil
}

// Embed embeds a single text. It rides the batch path so retry and
// rate-limit behaviour is identical either way.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("openai: empty embedding response")
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts. Inputs are split
// into batches of maxBatchSize and each response is re-ordered by the
// provider's index field, so result[i] always embeds texts[i].
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := min(start+maxBatchSize, len(texts))

		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// embedBatch embeds one batch with bounded retries on transient
// failures (connection errors, 429, 5xx); exhausted retries surface
// domain.ErrEmbeddingUnavailable.
func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleepBackoff(ctx, attempt); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vectors, retry, err := c.embedOnce(ctx, texts)
		if err == nil {
			if c.normalize {
				for i := range vectors {
					vectors[i] = domain.NormaliseVector(vectors[i])
				}
			}
			return vectors, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, lastErr)
}

// embedOnce performs a single API call. The second return reports
// whether the failure is transient and worth retrying.
func (c *Client) embedOnce(ctx context.Context, texts []string) ([][]float32, bool, error) {
	request := wireRequest{Model: c.model, Inputs: texts}
	if supportsCustomDimensions(c.model) && c.dims > 0 {
		request.Dims = c.dims
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		// Connection failures are transient unless the context is done.
		return nil, ctx.Err() == nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retryableStatus(resp.StatusCode), fmt.Errorf("read response: %w", err)
	}

	// The body is decoded even on error statuses: the provider reports
	// failures as a JSON error object worth surfacing verbatim.
	var decoded wireResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode != http.StatusOK {
		msg := string(raw)
		if decodeErr == nil && decoded.Error != nil {
			msg = decoded.Error.Message
		}
		apiErr := fmt.Errorf("openai error (status %d): %s", resp.StatusCode, msg)
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr = fmt.Errorf("%w: %w", domain.ErrRateLimited, apiErr)
		}
		return nil, retryableStatus(resp.StatusCode), apiErr
	}
	if decodeErr != nil {
		return nil, false, fmt.Errorf("decode response: %w", decodeErr)
	}
	if decoded.Error != nil {
		return nil, false, fmt.Errorf("openai error: %s", decoded.Error.Message)
	}

	// The provider may answer out of order; the index field maps each
	// vector back to its input. Vectors arrive as float64 and are
	// narrowed to float32 for storage.
	vectors := make([][]float32, len(texts))
	for _, item := range decoded.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, false, fmt.Errorf("openai: embedding index %d out of range", item.Index)
		}
		vec := make([]float32, len(item.Vector))
		for i, component := range item.Vector {
			vec[i] = float32(component)
		}
		vectors[item.Index] = vec
	}
	for i, vec := range vectors {
		if vec == nil {
			return nil, false, fmt.Errorf("openai: no embedding returned for input %d", i)
		}
	}

	return vectors, false, nil
}

// Dimensions reports the vector size this client produces.
func (c *Client) Dimensions() int {
	return c.dims
}

// ModelName reports which model serves the embeddings.
func (c *Client) ModelName() string {
	return c.model
}

// Ping hits /models, which answers fast and exercises the API key
// without paying for inference.
func (c *Client) Ping(ctx context.Context) error {
	modelsURL := c.baseURL + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, modelsURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: build ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("openai: ping status %d (unreadable body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("openai: ping status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close is a no-op; the underlying HTTP client holds nothing that
// needs releasing.
func (c *Client) Close() error {
	return nil
}

// retryableStatus reports whether an HTTP status indicates a transient
// failure.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// sleepBackoff waits before the given retry attempt, doubling the delay
// each time (500ms, 1s, 2s).
func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	delay := c.backoff << (attempt - 1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
