package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
	"server/internal/infra"
)

const (
	defaultGenerateTimeout  = 5 * time.Minute
	defaultPreflightTimeout = 5 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL          string
	HTTPClient       *http.Client
	PreflightTimeout time.Duration
	Logger           *infra.Logger
}

// Client talks to the generation engine: a liveness probe plus a single
// blocking kick-off call. The engine's internals (agents, prompts, reasoning)
// are opaque to this service.
type Client struct {
	baseURL          string
	client           *http.Client
	preflightTimeout time.Duration
	logger           *infra.Logger
}

// GenerateRequest is the engine invocation payload, already bound to a tier's
// model and token budget.
type GenerateRequest struct {
	Topic        string               `json:"topic"`
	ContentTypes []domain.ContentType `json:"content_types"`
	Model        string               `json:"model"`
	MaxTokens    int                  `json:"max_tokens"`
}

// NewClient validates options and constructs an engine client.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("engine base url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultGenerateTimeout}
	}
	preflight := opts.PreflightTimeout
	if preflight <= 0 {
		preflight = defaultPreflightTimeout
	}
	return &Client{
		baseURL:          baseURL,
		client:           client,
		preflightTimeout: preflight,
		logger:           opts.Logger,
	}, nil
}

// Health probes the engine's liveness endpoint with a short timeout. A dead
// engine must fail fast here so no long-running generation is attempted.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.preflightTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEngineUnreachable, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEngineUnreachable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: health returned %d", domain.ErrEngineUnreachable, resp.StatusCode)
	}
	return nil
}

// Generate performs the blocking kick-off call and returns the engine's
// loosely structured result. Callers run this off the event-producing path;
// cancelling ctx aborts the underlying request.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerationResult, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", &buf)
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if c.logger != nil {
		c.logger.Debug().Str("model", req.Model).Str("topic", req.Topic).Msg("engine: generate started")
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("engine generate: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("engine generate: status %d", resp.StatusCode)
	}

	var result GenerationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}
	if result.Model == "" {
		result.Model = req.Model
	}
	return &result, nil
}
