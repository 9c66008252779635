package agent

import (
	"context"
	"time"

	"github.com/vampirenirmal/ritual/internal/domain"
	"github.com/vampirenirmal/ritual/internal/llm"
	"github.com/vampirenirmal/ritual/internal/prompt"
)

// Refine weaves the symbol language into the prototype prose. It never fails:
// on any error, a degraded reply or a reply whose plan structure differs from
// proto, it returns proto unchanged and false.
func (r *Runner) Refine(ctx context.Context, in Input, insight domain.InsightOutput, story domain.StoryOutput, proto domain.PrototypeOutput, symbol domain.SymbolOutput) (domain.PrototypeOutput, bool) {
	start := time.Now()
	logger := r.logger.With("agent", domain.AgentRefine)

	system, err := r.prompts.Refine(prompt.RefineInput{
		Prototype: proto,
		Symbol:    symbol,
		Insight:   insight,
		Story:     story,
		SSIC:      in.physicsBlock(domain.AgentRefine),
	})
	if err != nil {
		logger.Warn("keeping original prototype", "reason", "prompt", "error", err)
		return proto, false
	}

	res, err := llm.GenerateWithFallback(ctx, r.gen, system, prompt.RefineUserMessage(in.UserText), proto, r.options(r.budgets.Refine))
	switch {
	case err != nil:
		logger.Warn("keeping original prototype", "reason", "generation", "error", err)
		return proto, false
	case res.Degraded():
		logger.Warn("keeping original prototype", "reason", "unparseable reply", "cause", res.Cause)
		return proto, false
	case !proto.SameShape(res.Value):
		logger.Warn("keeping original prototype", "reason", "plan structure changed")
		return proto, false
	}

	logger.Info("prototype refined", "duration_ms", time.Since(start).Milliseconds())
	return res.Value, true
}
