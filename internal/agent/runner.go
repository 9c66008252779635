// Package agent runs the four generative agents of a session and the
// post-symbol steps that reshape their output: color mapping and prototype
// refinement.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vampirenirmal/ritual/internal/domain"
	"github.com/vampirenirmal/ritual/internal/kb"
	"github.com/vampirenirmal/ritual/internal/llm"
	"github.com/vampirenirmal/ritual/internal/prompt"
	"github.com/vampirenirmal/ritual/internal/ssic"
)

const (
	DefaultModel       = "claude-3-5-haiku-20241022"
	DefaultTemperature = 1.0

	maxSupportingQuotes = 5
)

// Budgets are the max output tokens per agent call.
type Budgets struct {
	Insight   int `yaml:"insight" validate:"min=1"`
	Story     int `yaml:"story" validate:"min=1"`
	Prototype int `yaml:"prototype" validate:"min=1"`
	Symbol    int `yaml:"symbol" validate:"min=1"`
	Refine    int `yaml:"refine" validate:"min=1"`
}

func DefaultBudgets() Budgets {
	return Budgets{
		Insight:   1500,
		Story:     1500,
		Prototype: 2000,
		Symbol:    1500,
		Refine:    2500,
	}
}

// Input is what every agent of one session shares: the user's text and the
// deterministic readings taken from it. Physics is nil until the SSIC stage
// has run.
type Input struct {
	UserText string
	Quotes   []string
	Pronoun  domain.Pronoun
	Keywords []string
	Physics  *ssic.Context
}

func (in Input) physicsBlock(agent domain.Agent) string {
	if in.Physics == nil {
		return ""
	}
	return ssic.PromptBlock(*in.Physics, agent)
}

// Runner composes retrieval, prompt building and the fallback-wrapped model
// call for each agent. A Runner is stateless apart from the searcher's cache
// and is safe to share between sessions.
type Runner struct {
	gen         llm.TextGenerator
	searcher    *kb.Searcher
	prompts     *prompt.Builder
	model       string
	temperature float64
	budgets     Budgets
	logger      *slog.Logger
}

type Option func(*Runner)

func WithModel(model string) Option {
	return func(r *Runner) {
		if model != "" {
			r.model = model
		}
	}
}

func WithTemperature(t float64) Option {
	return func(r *Runner) {
		r.temperature = t
	}
}

func WithBudgets(b Budgets) Option {
	return func(r *Runner) {
		r.budgets = b
	}
}

// WithPromptBuilder replaces the builder that renders the embedded templates.
func WithPromptBuilder(b *prompt.Builder) Option {
	return func(r *Runner) {
		if b != nil {
			r.prompts = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger.With("component", "agent")
	}
}

func NewRunner(gen llm.TextGenerator, searcher *kb.Searcher, opts ...Option) *Runner {
	r := &Runner{
		gen:         gen,
		searcher:    searcher,
		prompts:     prompt.NewBuilder(),
		model:       DefaultModel,
		temperature: DefaultTemperature,
		budgets:     DefaultBudgets(),
		logger:      slog.Default().With("component", "agent"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) options(maxTokens int) llm.Options {
	return llm.Options{Model: r.model, MaxTokens: maxTokens, Temperature: r.temperature}
}

// generate is the shared tail of every agent: one fallback-wrapped call plus
// logging. Go methods cannot be generic, so the runner is passed in.
func generate[T any](ctx context.Context, r *Runner, agent domain.Agent, system, user string, fallback T, maxTokens int) (llm.Result[T], error) {
	start := time.Now()
	r.logger.Debug("calling model",
		"agent", agent,
		"model", r.model,
		"max_tokens", maxTokens,
		"prompt_length", len(system))

	res, err := llm.GenerateWithFallback(ctx, r.gen, system, user, fallback, r.options(maxTokens))
	if err != nil {
		r.logger.Error("agent failed",
			"agent", agent,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return res, fmt.Errorf("%s agent: %w", agent, err)
	}

	if res.Degraded() {
		r.logger.Warn("agent returned fallback output",
			"agent", agent,
			"attempts", res.Attempts,
			"cause", res.Cause)
	} else {
		r.logger.Info("agent complete",
			"agent", agent,
			"attempts", res.Attempts,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return res, nil
}

// Insight reads the emotional core of the challenge. Supporting quotes in the
// result are always a subset of in.Quotes.
func (r *Runner) Insight(ctx context.Context, in Input) (llm.Result[domain.InsightOutput], error) {
	kbContext, err := r.searcher.SearchContext(ctx, domain.AgentInsight, in.UserText)
	if err != nil {
		return llm.Result[domain.InsightOutput]{}, err
	}

	system, err := r.prompts.Insight(prompt.InsightInput{
		KBContext: kbContext,
		Quotes:    in.Quotes,
		Pronoun:   in.Pronoun,
	})
	if err != nil {
		return llm.Result[domain.InsightOutput]{}, fmt.Errorf("building insight prompt: %w", err)
	}

	res, err := generate(ctx, r, domain.AgentInsight, system, in.UserText, FallbackInsight(), r.budgets.Insight)
	if err != nil {
		return res, err
	}
	res.Value.SupportingQuotes = filterQuotes(res.Value.SupportingQuotes, in.Quotes)
	return res, nil
}

// filterQuotes keeps the selected quotes that appear verbatim in allowed,
// without duplicates and at most five.
func filterQuotes(selected, allowed []string) []string {
	known := make(map[string]bool, len(allowed))
	for _, q := range allowed {
		known[q] = true
	}

	kept := make([]string, 0, len(selected))
	seen := make(map[string]bool, len(selected))
	for _, q := range selected {
		if !known[q] || seen[q] {
			continue
		}
		seen[q] = true
		kept = append(kept, q)
		if len(kept) == maxSupportingQuotes {
			break
		}
	}
	return kept
}

func (r *Runner) Story(ctx context.Context, in Input, insight domain.InsightOutput) (llm.Result[domain.StoryOutput], error) {
	kbContext, err := r.searcher.SearchContext(ctx, domain.AgentStory, in.UserText, insight.ArchetypeGuess)
	if err != nil {
		return llm.Result[domain.StoryOutput]{}, err
	}

	system, err := r.prompts.Story(prompt.StoryInput{
		KBContext: kbContext,
		Insight:   insight,
		Keywords:  in.Keywords,
		Pronoun:   in.Pronoun,
		SSIC:      in.physicsBlock(domain.AgentStory),
	})
	if err != nil {
		return llm.Result[domain.StoryOutput]{}, fmt.Errorf("building story prompt: %w", err)
	}

	return generate(ctx, r, domain.AgentStory, system, in.UserText, FallbackStory(), r.budgets.Story)
}

func (r *Runner) Prototype(ctx context.Context, in Input, insight domain.InsightOutput, story domain.StoryOutput) (llm.Result[domain.PrototypeOutput], error) {
	kbContext, err := r.searcher.SearchContext(ctx, domain.AgentPrototype, in.UserText, story.DesiredChapter)
	if err != nil {
		return llm.Result[domain.PrototypeOutput]{}, err
	}

	system, err := r.prompts.Prototype(prompt.PrototypeInput{
		KBContext: kbContext,
		Insight:   insight,
		Story:     story,
		Keywords:  in.Keywords,
		Pronoun:   in.Pronoun,
		SSIC:      in.physicsBlock(domain.AgentPrototype),
	})
	if err != nil {
		return llm.Result[domain.PrototypeOutput]{}, fmt.Errorf("building prototype prompt: %w", err)
	}

	return generate(ctx, r, domain.AgentPrototype, system, in.UserText, FallbackPrototype(), r.budgets.Prototype)
}

// Symbol returns the raw symbol reply. Its palette still needs MapColors.
func (r *Runner) Symbol(ctx context.Context, in Input, insight domain.InsightOutput, story domain.StoryOutput, proto domain.PrototypeOutput) (llm.Result[domain.SymbolOutput], error) {
	kbContext, err := r.searcher.SearchContext(ctx, domain.AgentSymbol, in.UserText, insight.ArchetypeGuess, story.HeroDescription)
	if err != nil {
		return llm.Result[domain.SymbolOutput]{}, err
	}

	system, err := r.prompts.Symbol(prompt.SymbolInput{
		KBContext: kbContext,
		Insight:   insight,
		Story:     story,
		Prototype: proto,
		Keywords:  in.Keywords,
		Pronoun:   in.Pronoun,
		SSIC:      in.physicsBlock(domain.AgentSymbol),
	})
	if err != nil {
		return llm.Result[domain.SymbolOutput]{}, fmt.Errorf("building symbol prompt: %w", err)
	}

	return generate(ctx, r, domain.AgentSymbol, system, in.UserText, FallbackSymbol(), r.budgets.Symbol)
}
