package kb

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Embedder turns text into a vector comparable with the stored chunk
// embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const defaultEmbeddingModel = "gemini-embedding-001"

// GenAIEmbedder embeds queries with the Gemini embedding API.
type GenAIEmbedder struct {
	client   *genai.Client
	model    string
	taskType string
}

// NewGenAIEmbedder creates an embedder for retrieval queries. An empty model
// selects gemini-embedding-001.
func NewGenAIEmbedder(ctx context.Context, apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("genai embedder: API key is required")
	}
	if model == "" {
		model = defaultEmbeddingModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIEmbedder{
		client:   client,
		model:    model,
		taskType: "RETRIEVAL_QUERY",
	}, nil
}

func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: e.taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, errors.New("genai embed: no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}
