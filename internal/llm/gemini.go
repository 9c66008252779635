package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const providerGemini = "gemini"

// GeminiClient is a TextGenerator backed by the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewGeminiClient creates a Gemini generator. An empty model selects
// gemini-2.0-flash.
func NewGeminiClient(ctx context.Context, apiKey, model string, requestsPerMinute, burst int) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 50
	}
	if burst <= 0 {
		burst = 1
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
		logger:  slog.Default().With("component", "gemini_client"),
	}, nil
}

// Generate always uses the model the client was built with; opts.Model is
// ignored so agent options written for another provider still work here.
func (g *GeminiClient) Generate(ctx context.Context, system, user string, opts Options) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", newCallError(providerGemini, fmt.Errorf("rate limit wait: %w", err))
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), cfg)
	if err != nil {
		return "", classifyGenAIError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", &GenerationError{Kind: KindParse, Err: ErrEmptyReply}
	}

	attrs := []any{
		"model", g.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_length", len(text),
	}
	if resp.UsageMetadata != nil {
		attrs = append(attrs,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount)
	}
	g.logger.Info("gemini request completed", attrs...)
	return text, nil
}

func classifyGenAIError(err error) *TransportError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &TransportError{
			Kind:       statusKind(apiErr.Code),
			Provider:   providerGemini,
			StatusCode: apiErr.Code,
			Err:        err,
		}
	}
	return newCallError(providerGemini, err)
}
