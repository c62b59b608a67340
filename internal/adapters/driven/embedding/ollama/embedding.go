// Package ollama embeds text through a local Ollama instance. It is
// the default provider: no API key, and nothing leaves the machine.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
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
	DefaultBaseURL     = "http://localhost:11434"
	DefaultModel       = "nomic-embed-text"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultDimensions  = 768 // nomic-embed-text default

	// DefaultRequestRate paces calls to the local instance so bulk
	// syncs don't starve interactive queries (requests/second).
	DefaultRequestRate = 10.0

	// maxRetries bounds re-attempts on transient failures before the
	// client reports domain.ErrEmbeddingUnavailable.
	maxRetries  = 3
	baseBackoff = 500 * time.Millisecond
)

// Config carries the knobs for the Ollama adapter. Every field is
// optional; zero values fall back to the defaults above.
type Config struct {
	BaseURL     string
	Model       string
	HTTPTimeout time.Duration

	// Dimensions is the vector size the model produces. Stored as
	// given; Ollama itself decides the real size per model.
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
	if c.Dimensions == 0 {
		c.Dimensions = DefaultDimensions
	}
	if c.RequestRate == 0 {
		c.RequestRate = DefaultRequestRate
	}
	return c
}

// Client turns text into vectors via Ollama's /api/embeddings endpoint,
// one text per call, with retries on transient failures.
type Client struct {
	client    *http.Client
	limiter   *rate.Limiter
	baseURL   string
	model     string
	dims      int
	normalize bool
	backoff   time.Duration
}

// wireRequest and wireResponse mirror Ollama's embedding endpoint.
type wireRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type wireResponse struct {
	Vector []float64 `json:"embedding"`
}

// NewClient builds the adapter. Construction cannot fail; a wrong base
// URL only shows up when the first call goes out.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()

	return &Client{
		client:    &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestRate), 1),
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		dims:      cfg.Dimensions,
		normalize: cfg.Normalize,
		backoff:   baseBackoff,
	}
}

// Embed turns one text into its vector.
// Transient failures (connection errors, 429, 5xx) are retried with
// exponential backoff; exhausted retries surface
// domain.ErrEmbeddingUnavailable.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
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

		vec, retry, err := c.embedOnce(ctx, text)
		if err == nil {
			if c.normalize {
				vec = domain.NormaliseVector(vec)
			}
			return vec, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, lastErr)
}

// embedOnce performs a single embedding request. The second return
// reports whether the failure is transient and worth retrying.
func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, bool, error) {
	payload, err := json.Marshal(wireRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Connection failures are transient unless the context is done.
		return nil, ctx.Err() == nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, retryableStatus(resp.StatusCode), fmt.Errorf("ollama error (status %d): unreadable body", resp.StatusCode)
		}
		return nil, retryableStatus(resp.StatusCode), fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var decoded wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}

	// Vectors arrive as float64 and are narrowed to float32 for storage.
	vec := make([]float32, len(decoded.Vector))
	for i, component := range decoded.Vector {
		vec[i] = float32(component)
	}

	return vec, false, nil
}

// EmbedBatch generates embeddings for multiple texts.
// Ollama has no batch endpoint, so texts are embedded one at a time;
// the limiter paces the calls.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := c.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d of %d: %w", i+1, len(texts), err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions reports the vector size this client produces.
func (c *Client) Dimensions() int {
	return c.dims
}

// ModelName reports which model serves the embeddings.
func (c *Client) ModelName() string {
	return c.model
}

// Ping hits /api/tags, which answers fast and proves the instance is
// up without running inference.
func (c *Client) Ping(ctx context.Context) error {
	tagsURL := c.baseURL + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tagsURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: build ping request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("ollama: ping status %d (unreadable body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("ollama: ping status %d: %s", resp.StatusCode, string(body))
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
