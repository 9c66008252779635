// Package core runs a session through the pipeline stages in order and
// assembles the report.
package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vampirenirmal/ritual/internal/agent"
	"github.com/vampirenirmal/ritual/internal/consistency"
	"github.com/vampirenirmal/ritual/internal/domain"
	"github.com/vampirenirmal/ritual/internal/llm"
	"github.com/vampirenirmal/ritual/internal/preprocess"
	"github.com/vampirenirmal/ritual/internal/ssic"
	"github.com/vampirenirmal/ritual/internal/vocabulary"
)

// Agents is the generative side of a session. *agent.Runner implements it.
type Agents interface {
	Insight(ctx context.Context, in agent.Input) (llm.Result[domain.InsightOutput], error)
	Story(ctx context.Context, in agent.Input, insight domain.InsightOutput) (llm.Result[domain.StoryOutput], error)
	Prototype(ctx context.Context, in agent.Input, insight domain.InsightOutput, story domain.StoryOutput) (llm.Result[domain.PrototypeOutput], error)
	Symbol(ctx context.Context, in agent.Input, insight domain.InsightOutput, story domain.StoryOutput, proto domain.PrototypeOutput) (llm.Result[domain.SymbolOutput], error)
	Refine(ctx context.Context, in agent.Input, insight domain.InsightOutput, story domain.StoryOutput, proto domain.PrototypeOutput, symbol domain.SymbolOutput) (domain.PrototypeOutput, bool)
}

type Pipeline struct {
	agents Agents
	scorer *consistency.Scorer
	bounds InputBounds
	debug  bool
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

type Option func(*Pipeline)

func WithScorer(s *consistency.Scorer) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.scorer = s
		}
	}
}

func WithInputBounds(b InputBounds) Option {
	return func(p *Pipeline) {
		p.bounds = b
	}
}

// WithDebug attaches the physics summary to every report.
func WithDebug(debug bool) Option {
	return func(p *Pipeline) {
		p.debug = debug
	}
}

// WithClock replaces time.Now for timestamps and stage timings.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) {
		p.newID = newID
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func NewPipeline(agents Agents, opts ...Option) *Pipeline {
	p := &Pipeline{
		agents: agents,
		scorer: consistency.NewScorer(),
		bounds: DefaultInputBounds(),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		logger: slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// session is the mutable state of one Run.
type session struct {
	report  *SessionReport
	in      agent.Input
	physics *ssic.State
	symbol  domain.SymbolOutput
	elapsed time.Duration
}

func (s *session) degraded(a domain.Agent, degraded bool) {
	if degraded {
		s.report.Degraded = append(s.report.Degraded, a)
	}
}

type stage struct {
	state State
	run   func(ctx context.Context, s *session) error
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{StatePreprocessing, p.preprocess},
		{StateInsightRunning, p.insight},
		{StateVocabExtraction, p.vocabulary},
		{StateSSICExtraction, p.physics},
		{StateStoryRunning, p.story},
		{StatePrototypeRunning, p.prototype},
		{StateSymbolRunning, p.symbol},
		{StateColorMapping, p.colors},
		{StatePrototypeRefining, p.refine},
		{StateConsistencyScoring, p.score},
	}
}

// Run validates userText and takes it through every stage. Invalid input
// returns an *InputError before any stage starts; a failing stage returns a
// *SessionError.
func (p *Pipeline) Run(ctx context.Context, userText string) (*SessionReport, error) {
	if err := p.bounds.Validate(userText).Err(); err != nil {
		return nil, err
	}

	s := &session{report: &SessionReport{
		ID:        p.newID(),
		UserText:  userText,
		Timestamp: p.now(),
		Stages:    make([]StageTiming, 0, int(StateComplete)),
	}}
	logger := p.logger.With("session_id", s.report.ID)
	logger.Info("session started")

	for _, st := range p.stages() {
		start := p.now()
		err := st.run(ctx, s)
		if err == nil {
			err = ctx.Err()
		}
		d := p.now().Sub(start)
		s.elapsed += d
		s.report.Stages = append(s.report.Stages, StageTiming{Stage: st.state.String(), DurationMS: d.Milliseconds()})

		if err != nil {
			logger.Error("stage failed",
				"stage", st.state.String(),
				"elapsed_ms", s.elapsed.Milliseconds(),
				"error", err)
			return nil, &SessionError{SessionID: s.report.ID, Stage: st.state, Elapsed: s.elapsed, Err: err}
		}
		logger.Info("stage completed", "stage", st.state.String(), "duration_ms", d.Milliseconds())
	}

	for _, t := range s.report.Stages {
		s.report.TotalDuration += t.DurationMS
	}
	logger.Info("session complete",
		"duration_ms", s.report.TotalDuration,
		"score", s.report.Consistency.Score,
		"degraded", len(s.report.Degraded))
	return s.report, nil
}

func (p *Pipeline) preprocess(_ context.Context, s *session) error {
	pre := preprocess.Run(s.report.UserText)
	quotes := pre.ExtractedQuotes
	if quotes == nil {
		quotes = []string{}
	}
	s.in = agent.Input{UserText: pre.CleanedText, Quotes: quotes, Pronoun: pre.Pronoun}
	s.report.Preprocessing = domain.Preprocessing{ExtractedQuotes: quotes, Pronoun: pre.Pronoun}
	return nil
}

func (p *Pipeline) insight(ctx context.Context, s *session) error {
	res, err := p.agents.Insight(ctx, s.in)
	if err != nil {
		return err
	}
	s.report.Insight = res.Value
	s.degraded(domain.AgentInsight, res.Degraded())
	return nil
}

func (p *Pipeline) vocabulary(_ context.Context, s *session) error {
	keywords := vocabulary.ExtractKeywords(s.report.Insight)
	if keywords == nil {
		keywords = []string{}
	}
	s.in.Keywords = keywords
	s.report.Preprocessing.Keywords = keywords
	return nil
}

func (p *Pipeline) physics(_ context.Context, s *session) error {
	state := ssic.ExtractPhysics(s.report.Insight, s.in.Keywords)
	c := ssic.BuildContext(state)
	s.physics = &state
	s.in.Physics = &c
	if p.debug {
		summary := ssic.Summarize(state)
		s.report.SSIC = &summary
	}
	return nil
}

func (p *Pipeline) story(ctx context.Context, s *session) error {
	res, err := p.agents.Story(ctx, s.in, s.report.Insight)
	if err != nil {
		return err
	}
	s.report.Story = res.Value
	s.degraded(domain.AgentStory, res.Degraded())
	return nil
}

func (p *Pipeline) prototype(ctx context.Context, s *session) error {
	res, err := p.agents.Prototype(ctx, s.in, s.report.Insight, s.report.Story)
	if err != nil {
		return err
	}
	s.report.Prototype = res.Value
	s.degraded(domain.AgentPrototype, res.Degraded())
	return nil
}

func (p *Pipeline) symbol(ctx context.Context, s *session) error {
	res, err := p.agents.Symbol(ctx, s.in, s.report.Insight, s.report.Story, s.report.Prototype)
	if err != nil {
		return err
	}
	s.symbol = res.Value
	s.degraded(domain.AgentSymbol, res.Degraded())
	return nil
}

func (p *Pipeline) colors(_ context.Context, s *session) error {
	palette := agent.MapColors(s.symbol.ColorPaletteSuggestions, s.report.Insight)
	s.report.Symbol = s.symbol.WithPalette(palette)
	return nil
}

func (p *Pipeline) refine(ctx context.Context, s *session) error {
	s.report.Prototype, s.report.Refined = p.agents.Refine(ctx, s.in, s.report.Insight, s.report.Story, s.report.Prototype, s.symbol)
	return nil
}

func (p *Pipeline) score(_ context.Context, s *session) error {
	r := s.report
	r.Consistency = p.scorer.Compute(r.Insight, r.Story, r.Prototype, r.Symbol, s.physics)
	return nil
}
