package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vampirenirmal/ritual/internal/agent"
	"github.com/vampirenirmal/ritual/internal/agent/agenttest"
	"github.com/vampirenirmal/ritual/internal/config"
	"github.com/vampirenirmal/ritual/internal/consistency"
	"github.com/vampirenirmal/ritual/internal/core"
	"github.com/vampirenirmal/ritual/internal/kb"
	"github.com/vampirenirmal/ritual/internal/llm"
	"github.com/vampirenirmal/ritual/internal/prompt"
	"github.com/vampirenirmal/ritual/internal/storage"
)

var errEmbeddingDisabled = errors.New("query embedding is not available for this command")

// offlineEmbedder lets commands that never search open the store without a
// Gemini key.
type offlineEmbedder struct{}

func (offlineEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errEmbeddingDisabled
}

// app is everything one command invocation needs, wired from config.
type app struct {
	pipeline *core.Pipeline
	searcher *kb.Searcher
	closers  []func() error
}

// newApp wires the pipeline. A dry run answers every agent with canned
// replies and searches an empty knowledge base, so it needs no keys.
func newApp(ctx context.Context, cfg *config.Config, dryRun bool) (*app, error) {
	a := &app{}

	var (
		gen       llm.TextGenerator
		retriever kb.Retriever
	)
	if dryRun {
		gen = agenttest.NewGenerator(nil)
		retriever = kb.NewStaticRetriever(nil)
	} else {
		var err error
		if gen, err = newGenerator(ctx, cfg); err != nil {
			return nil, err
		}
		store, err := openKnowledgeBase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		retriever = store
	}

	cache := kb.NewCache[[]kb.RankedChunk](cfg.Cache.TTL, cfg.Cache.Capacity)
	a.searcher = kb.NewSearcher(retriever, kb.WithCache(cache))

	var promptOpts []prompt.Option
	if cfg.Paths.PromptsDir != "" {
		promptOpts = append(promptOpts, prompt.WithOverrideDir(cfg.Paths.PromptsDir))
	}
	runner := agent.NewRunner(gen, a.searcher,
		agent.WithModel(cfg.AI.Model),
		agent.WithTemperature(cfg.AI.Temperature),
		agent.WithBudgets(cfg.AI.MaxTokens),
		agent.WithPromptBuilder(prompt.NewBuilder(promptOpts...)),
	)

	a.pipeline = core.NewPipeline(runner,
		core.WithScorer(consistency.NewScorer(consistency.WithWeights(cfg.Scoring))),
		core.WithInputBounds(core.InputBounds{Min: cfg.Input.MinLength, Max: cfg.Input.MaxLength}),
		core.WithDebug(cfg.Debug),
	)
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func newGenerator(ctx context.Context, cfg *config.Config) (llm.TextGenerator, error) {
	rl := cfg.Limits.RateLimit
	if cfg.AI.Provider == config.ProviderGemini {
		g, err := llm.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, rl.RequestsPerMinute, rl.BurstSize)
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		return g, nil
	}

	c, err := llm.NewClient(cfg.AI.APIKey,
		llm.WithAPIConfig(cfg.AI.BaseURL, cfg.AI.Model),
		llm.WithTimeout(time.Duration(cfg.AI.Timeout)*time.Second),
		llm.WithRetry(cfg.Limits.MaxRetries),
		llm.WithBackoff(cfg.Limits.RetryBackoff),
		llm.WithRateLimit(rl.RequestsPerMinute, rl.BurstSize),
		llm.WithCostLogging(cfg.CostLogging),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", cfg.AI.Provider, err)
	}
	return c, nil
}

func openKnowledgeBase(ctx context.Context, cfg *config.Config) (*kb.SQLiteStore, error) {
	if cfg.AI.GeminiAPIKey == "" {
		return nil, errors.New("knowledge base search needs GEMINI_API_KEY for query embeddings")
	}
	embedder, err := kb.NewGenAIEmbedder(ctx, cfg.AI.GeminiAPIKey, cfg.AI.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	return openStore(ctx, cfg.Paths.KnowledgeBase, embedder)
}

func openStore(ctx context.Context, path string, embedder kb.Embedder) (*kb.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating knowledge base directory: %w", err)
	}
	return kb.OpenSQLite(ctx, path, embedder)
}

func newReportStore(cfg *config.Config) *storage.ReportStore {
	return storage.NewReportStore(storage.NewFileSystem(cfg.Paths.OutputDir))
}
