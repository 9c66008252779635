package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vampirenirmal/ritual/internal/agent"
	"github.com/vampirenirmal/ritual/internal/agent/agenttest"
	"github.com/vampirenirmal/ritual/internal/consistency"
	"github.com/vampirenirmal/ritual/internal/core"
	"github.com/vampirenirmal/ritual/internal/domain"
	"github.com/vampirenirmal/ritual/internal/kb"
	"github.com/vampirenirmal/ritual/internal/llm"
	"github.com/vampirenirmal/ritual/internal/ssic"
)

// The genai client pulls in opencensus, whose init starts a stats worker
// that lives for the whole process.
var ignoreOpenCensus = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, ignoreOpenCensus)
}

// steppingClock advances by step on every reading.
func steppingClock(step time.Duration) func() time.Time {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func newPipeline(gen llm.TextGenerator, opts ...core.Option) *core.Pipeline {
	runner := agent.NewRunner(gen, kb.NewSearcher(kb.NewStaticRetriever(nil)))
	base := []core.Option{
		core.WithClock(steppingClock(10 * time.Millisecond)),
		core.WithIDGenerator(func() string { return "session-1" }),
	}
	return core.NewPipeline(runner, append(base, opts...)...)
}

func TestPipelineRun(t *testing.T) {
	gen := agenttest.NewGenerator(nil)
	report, err := newPipeline(gen).Run(context.Background(), agenttest.UserText)
	require.NoError(t, err)

	assert.Equal(t, "session-1", report.ID)
	assert.Equal(t, agenttest.UserText, report.UserText)
	assert.Equal(t, 5, gen.CallCount())

	var stages []string
	for _, st := range report.Stages {
		stages = append(stages, st.Stage)
		assert.Equal(t, int64(10), st.DurationMS)
	}
	want := []string{
		"preprocessing", "insight_running", "vocab_extraction", "ssic_extraction",
		"story_running", "prototype_running", "symbol_running", "color_mapping",
		"prototype_refining", "consistency_scoring",
	}
	assert.Equal(t, want, stages)
	assert.Equal(t, int64(100), report.TotalDuration)
	assert.Equal(t, 100*time.Millisecond, report.Duration())

	assert.Equal(t, "The Creator", report.Insight.ArchetypeGuess)
	assert.Equal(t, []string{"I keep starting projects and abandoning them because I fear judgment"}, report.Insight.SupportingQuotes)
	assert.NotEmpty(t, report.Preprocessing.ExtractedQuotes)
	assert.NotEmpty(t, report.Preprocessing.Keywords)
	assert.Equal(t, domain.PronounThey, report.Preprocessing.Pronoun)

	require.Len(t, report.Symbol.ColorPaletteSuggestions, 5)
	assert.Equal(t, "#8B2500", report.Symbol.ColorPaletteSuggestions[0].Color)

	assert.True(t, report.Refined)
	assert.True(t, strings.HasPrefix(report.Prototype.Goal, "Carry one small, real piece of work through the kiln"))
	assert.Len(t, report.Consistency.Notes, 9)
	assert.Nil(t, report.SSIC)
	assert.Empty(t, report.Degraded)
}

func TestPipelineRunDebugAttachesPhysics(t *testing.T) {
	report, err := newPipeline(agenttest.NewGenerator(nil), core.WithDebug(true)).Run(context.Background(), agenttest.UserText)
	require.NoError(t, err)
	require.NotNil(t, report.SSIC)
	assert.NotEmpty(t, report.SSIC.Resistance)
	assert.NotEmpty(t, report.SSIC.Zones)
}

func TestPipelineRunRejectsInput(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", "User text is required and must be a string"},
		{"blank", "   \n\t", "User text cannot be empty"},
		{"short", "  too short ", "User text must be at least 10 characters"},
		{"long", strings.Repeat("a", 2001), "User text must be less than 2000 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := agenttest.NewGenerator(nil)
			report, err := newPipeline(gen).Run(context.Background(), tt.text)
			assert.Nil(t, report)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidInput))
			assert.Equal(t, tt.want, err.Error())
			assert.Zero(t, gen.CallCount())
		})
	}
}

func TestPipelineRunCustomBounds(t *testing.T) {
	p := newPipeline(agenttest.NewGenerator(nil), core.WithInputBounds(core.InputBounds{Min: 200, Max: 500}))
	_, err := p.Run(context.Background(), agenttest.UserText)
	require.Error(t, err)
	assert.Equal(t, "User text must be at least 200 characters", err.Error())
}

func TestPipelineRunTransportFailure(t *testing.T) {
	canned := agenttest.Responder(nil)
	gen := llm.GeneratorFunc(func(_ context.Context, system, user string, _ llm.Options) (string, error) {
		if a, _ := agenttest.AgentOf(system); a == domain.AgentStory {
			return "", &llm.TransportError{Kind: llm.KindServer, Provider: "mock", StatusCode: 503, Err: errors.New("overloaded")}
		}
		return canned(system, user)
	})

	report, err := newPipeline(gen).Run(context.Background(), agenttest.UserText)
	assert.Nil(t, report)

	var se *core.SessionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, core.StateStoryRunning, se.Stage)
	assert.Equal(t, "session-1", se.SessionID)
	assert.Equal(t, 50*time.Millisecond, se.Elapsed)

	var te *llm.TransportError
	assert.True(t, errors.As(err, &te))
	assert.True(t, core.IsRetryable(err))
	assert.Contains(t, err.Error(), "story_running")
}

func TestPipelineRunDegradedStage(t *testing.T) {
	gen := agenttest.NewGenerator(map[domain.Agent]string{domain.AgentStory: "Once upon a time, no JSON."})
	report, err := newPipeline(gen).Run(context.Background(), agenttest.UserText)
	require.NoError(t, err)

	assert.Equal(t, []domain.Agent{domain.AgentStory}, report.Degraded)
	assert.Equal(t, agent.FallbackStory(), report.Story)
	assert.Len(t, report.Stages, 10)
}

func TestPipelineRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := agenttest.NewGenerator(nil)
	_, err := newPipeline(gen).Run(ctx, agenttest.UserText)

	var se *core.SessionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, core.StatePreprocessing, se.Stage)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, core.IsTerminal(err))
	assert.Zero(t, gen.CallCount())
}

func TestPipelineRunIsRepeatable(t *testing.T) {
	p := newPipeline(agenttest.NewGenerator(nil))
	first, err := p.Run(context.Background(), agenttest.UserText)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), agenttest.UserText)
	require.NoError(t, err)

	assert.Equal(t, first.Consistency, second.Consistency)
	assert.Equal(t, first.Symbol, second.Symbol)
}

func TestSavedReportRescoresToSameCheck(t *testing.T) {
	report, err := newPipeline(agenttest.NewGenerator(nil)).Run(context.Background(), agenttest.UserText)
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	var saved core.SessionReport
	require.NoError(t, json.Unmarshal(data, &saved))

	physics := ssic.ExtractPhysics(saved.Insight, saved.Preprocessing.Keywords)
	rescored := consistency.ComputeSessionConsistency(saved.Insight, saved.Story, saved.Prototype, saved.Symbol, &physics)

	assert.Equal(t, report.Consistency, rescored)
	assert.Equal(t, saved.Consistency, rescored)
}
