package core_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vampirenirmal/ritual/internal/agent"
	"github.com/vampirenirmal/ritual/internal/agent/agenttest"
	"github.com/vampirenirmal/ritual/internal/core"
	"github.com/vampirenirmal/ritual/internal/kb"
	"github.com/vampirenirmal/ritual/internal/llm"
)

func TestValidateUserInput(t *testing.T) {
	tests := []struct {
		name string
		text string
		want core.ValidationResult
	}{
		{"empty", "", core.ValidationResult{Error: "User text is required and must be a string"}},
		{"whitespace", "      ", core.ValidationResult{Error: "User text cannot be empty"}},
		{"nine after trim", "  123456789  ", core.ValidationResult{Error: "User text must be at least 10 characters"}},
		{"exactly ten", "1234567890", core.ValidationResult{Valid: true}},
		{"multibyte counts runes", strings.Repeat("é", 2000), core.ValidationResult{Valid: true}},
		{"too long", strings.Repeat("x", 2001), core.ValidationResult{Error: "User text must be less than 2000 characters"}},
		{"long before trim", "  " + strings.Repeat("x", 2000) + "  ", core.ValidationResult{Valid: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.ValidateUserInput(tt.text)
			assert.Equal(t, tt.want, got)
			if got.Valid {
				assert.NoError(t, got.Err())
			} else {
				assert.ErrorIs(t, got.Err(), core.ErrInvalidInput)
			}
		})
	}
}

func TestStates(t *testing.T) {
	stages := core.Stages()
	require.Len(t, stages, 10)
	assert.Equal(t, core.StatePreprocessing, stages[0])
	assert.Equal(t, core.StateConsistencyScoring, stages[9])

	assert.Equal(t, "complete", core.StateComplete.String())
	assert.Equal(t, "failed", core.StateFailed.String())
	assert.Equal(t, "unknown", core.State(99).String())

	assert.True(t, core.StateComplete.Terminal())
	assert.True(t, core.StateFailed.Terminal())
	assert.False(t, core.StateSymbolRunning.Terminal())
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"input", &core.InputError{Message: "User text cannot be empty"}, false},
		{"server", &llm.TransportError{Kind: llm.KindServer, Err: errors.New("boom")}, true},
		{"auth", &llm.TransportError{Kind: llm.KindAuth, Err: llm.ErrAuth}, false},
		{"wrapped rate limit", &core.SessionError{Stage: core.StateInsightRunning, Err: fmt.Errorf("insight agent: %w", &llm.TransportError{Kind: llm.KindRateLimit, Err: llm.ErrRateLimited})}, true},
		{"canceled", &core.SessionError{Err: context.Canceled}, false},
		{"deadline", &core.SessionError{Err: context.DeadlineExceeded}, true},
		{"retrieval", fmt.Errorf("search: %w", kb.ErrUnknownAgent), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, core.IsRetryable(tt.err))
			assert.Equal(t, !tt.retryable, core.IsTerminal(tt.err))
		})
	}
	assert.False(t, core.IsRetryable(nil))
	assert.False(t, core.IsTerminal(nil))
}

func TestBatch(t *testing.T) {
	gen := agenttest.NewGenerator(nil)
	runner := agent.NewRunner(gen, kb.NewSearcher(kb.NewStaticRetriever(nil)))
	p := core.NewPipeline(runner)

	texts := []string{agenttest.UserText, "short", agenttest.UserText, agenttest.UserText}
	results := p.Batch(context.Background(), texts, 2)

	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	assert.ErrorIs(t, results[1].Err, core.ErrInvalidInput)
	assert.Nil(t, results[1].Report)
	assert.Equal(t, 1, core.CountFailed(results))

	ids := make(map[string]bool)
	for _, i := range []int{0, 2, 3} {
		require.NoError(t, results[i].Err)
		ids[results[i].Report.ID] = true
	}
	assert.Len(t, ids, 3)
	assert.Equal(t, 15, gen.CallCount())
}

func TestBatchEmpty(t *testing.T) {
	p := core.NewPipeline(agent.NewRunner(agenttest.NewGenerator(nil), kb.NewSearcher(kb.NewStaticRetriever(nil))))
	assert.Empty(t, p.Batch(context.Background(), nil, 0))
}
