package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	providerAnthropic = "anthropic"
	providerOpenAI    = "openai"

	defaultMaxTokens = 4096
	anthropicVersion = "2023-06-01"
)

// Client is an HTTP TextGenerator for the Anthropic Messages API or an
// OpenAI-compatible chat completions endpoint. Requests pass a shared rate
// limiter and retryable transport failures are resent with linear backoff.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	provider   string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	logCost    bool
	logger     *slog.Logger
}

type Option func(*Client)

func WithRetry(maxRetries int) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
	}
}

// WithBackoff sets the base delay between transport retries.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{
			Timeout:   timeout,
			Transport: c.httpClient.Transport,
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithRateLimit(requestsPerMinute, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	}
}

// WithAPIConfig points the client at baseURL. URLs containing "openai" speak
// the chat completions protocol; anything else the Messages API.
func WithAPIConfig(baseURL, model string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
		if model != "" {
			c.model = model
		}
		if strings.Contains(baseURL, "openai") {
			c.provider = providerOpenAI
		} else {
			c.provider = providerAnthropic
		}
	}
}

// WithCostLogging logs token usage and estimated cost of every reply.
func WithCostLogging(enabled bool) Option {
	return func(c *Client) {
		c.logCost = enabled
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	c := &Client{
		apiKey:   apiKey,
		baseURL:  "https://api.anthropic.com/v1",
		model:    "claude-3-5-haiku-20241022",
		provider: providerAnthropic,
		httpClient: &http.Client{
			Timeout:   120 * time.Second,
			Transport: transport,
		},
		maxRetries: 2,
		backoff:    time.Second,
		limiter:    rate.NewLimiter(rate.Limit(50.0/60.0), 5),
		logger:     slog.Default().With("component", "llm_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}

	c.logger.Debug("llm client initialized",
		"provider", c.provider,
		"base_url", c.baseURL,
		"model", c.model,
		"max_retries", c.maxRetries,
		"rate_limit", fmt.Sprintf("%v req/s", c.limiter.Limit()))
	return c, nil
}

// Generate sends one request, retrying network, rate-limit and server
// failures up to the configured count.
func (c *Client) Generate(ctx context.Context, system, user string, opts Options) (string, error) {
	if opts.Model == "" {
		opts.Model = c.model
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}

	requestID := fmt.Sprintf("%s_%d", c.provider, time.Now().UnixNano())
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", newCallError(c.provider, fmt.Errorf("rate limit wait: %w", err))
	}
	c.logger.Debug("rate limit passed",
		"request_id", requestID,
		"wait_ms", time.Since(start).Milliseconds())

	var lastErr *TransportError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.backoff
			c.logger.Debug("retry backoff",
				"request_id", requestID,
				"attempt", attempt,
				"backoff", wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", newCallError(c.provider, ctx.Err())
			}
		}

		attemptStart := time.Now()
		text, usage, err := c.do(ctx, system, user, opts)
		if err == nil && text == "" {
			// The model answered with nothing: a contract failure, not a transport one.
			c.logger.Warn("llm returned empty content",
				"request_id", requestID,
				"attempt", attempt,
				"model", opts.Model)
			return "", &GenerationError{Kind: KindParse, Err: ErrEmptyReply}
		}
		if err == nil {
			c.logger.Info("llm request completed",
				"request_id", requestID,
				"attempt", attempt,
				"model", opts.Model,
				"duration_ms", time.Since(attemptStart).Milliseconds(),
				"input_tokens", usage.InputTokens,
				"output_tokens", usage.OutputTokens,
				"response_length", len(text))
			if c.logCost {
				c.logger.Info("llm cost",
					"request_id", requestID,
					"total_tokens", usage.Total(),
					"estimated_usd", fmt.Sprintf("%.6f", EstimateCost(usage)))
			}
			return text, nil
		}

		lastErr = err
		if !err.Retryable() {
			c.logger.Error("llm request failed",
				"request_id", requestID,
				"attempt", attempt,
				"kind", err.Kind.String(),
				"error", err)
			return "", err
		}
		c.logger.Warn("llm request failed, will retry",
			"request_id", requestID,
			"attempt", attempt,
			"kind", err.Kind.String(),
			"error", err)
	}

	c.logger.Error("llm request failed after retries",
		"request_id", requestID,
		"max_retries", c.maxRetries,
		"total_duration_ms", time.Since(start).Milliseconds(),
		"error", lastErr)
	return "", lastErr
}

func (c *Client) do(ctx context.Context, system, user string, opts Options) (string, Usage, *TransportError) {
	if c.provider == providerOpenAI {
		return c.doOpenAI(ctx, system, user, opts)
	}
	return c.doAnthropic(ctx, system, user, opts)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage Usage `json:"usage"`
}

func (c *Client) doAnthropic(ctx context.Context, system, user string, opts Options) (string, Usage, *TransportError) {
	body := anthropicRequest{
		Model:       opts.Model,
		System:      system,
		Messages:    []message{{Role: "user", Content: user}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := c.post(ctx, "/messages", headers, body, &resp); err != nil {
		return "", Usage{}, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), resp.Usage, nil
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *Client) doOpenAI(ctx context.Context, system, user string, opts Options) (string, Usage, *TransportError) {
	body := openAIRequest{
		Model: opts.Model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}

	var resp openAIResponse
	if err := c.post(ctx, "/chat/completions", headers, body, &resp); err != nil {
		return "", Usage{}, err
	}
	usage := Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens}
	if len(resp.Choices) == 0 {
		return "", usage, nil
	}
	return resp.Choices[0].Message.Content, usage, nil
}

func (c *Client) post(ctx context.Context, endpoint string, headers map[string]string, body, out any) *TransportError {
	payload, err := json.Marshal(body)
	if err != nil {
		return &TransportError{Kind: KindRequest, Provider: c.provider, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Kind: KindRequest, Provider: c.provider, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("sending llm request",
		"provider", c.provider,
		"endpoint", endpoint,
		"body_size_bytes", len(payload))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newCallError(c.provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return newCallError(c.provider, fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return newStatusError(c.provider, resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &TransportError{Kind: KindServer, Provider: c.provider, Err: fmt.Errorf("parsing response envelope: %w", err)}
	}
	return nil
}
