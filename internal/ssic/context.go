package ssic

import (
	"strings"

	"github.com/vampirenirmal/ritual/internal/domain"
)

// Context is the prompt-ready view of a State: the two profile sentences and
// the primitive lists for each downstream agent.
type Context struct {
	Resistance          string   `json:"resistance"`
	Momentum            string   `json:"momentum"`
	SymbolPrimitives    []string `json:"symbolPrimitives"`
	PrototypePrimitives []string `json:"prototypePrimitives"`
	NarrativePrimitives []string `json:"narrativePrimitives"`
}

// BuildContext derives the prompt context from a state.
func BuildContext(s State) Context {
	return Context{
		Resistance:          DescribeResistanceProfile(s),
		Momentum:            DescribeMomentumProfile(s),
		SymbolPrimitives:    DeriveSymbolPrimitives(s),
		PrototypePrimitives: DerivePrototypePrimitives(s),
		NarrativePrimitives: DeriveNarrativePrimitives(s),
	}
}

const refinePrimitiveLimit = 5

// FormatForPrompt renders the physics block for one agent. The insight agent
// produces the physics and never receives it, so it gets an empty string.
func FormatForPrompt(c Context, agent domain.Agent) string {
	if agent == domain.AgentInsight {
		return ""
	}

	var b strings.Builder
	b.WriteString("=== INTERNAL PHYSICS CONTEXT (SSIC) ===\n")
	b.WriteString("Use these symbolic primitives to maintain unified metaphor:\n\n")
	b.WriteString("RESISTANCE PROFILE:\n")
	b.WriteString(c.Resistance + "\n\n")
	b.WriteString("MOMENTUM PROFILE:\n")
	b.WriteString(c.Momentum + "\n\n")

	switch agent {
	case domain.AgentStory:
		writeList(&b, "NARRATIVE PRIMITIVES (use these story elements):", c.NarrativePrimitives)
	case domain.AgentPrototype:
		writeList(&b, "PROTOTYPE PRIMITIVES (use these action principles):", c.PrototypePrimitives)
	case domain.AgentSymbol:
		writeList(&b, "SYMBOL PRIMITIVES (use these visual/metaphorical elements):", c.SymbolPrimitives)
	case domain.AgentRefine:
		writeList(&b, "NARRATIVE PRIMITIVES:", head(c.NarrativePrimitives, refinePrimitiveLimit))
		b.WriteString("\n")
		writeList(&b, "PROTOTYPE PRIMITIVES:", head(c.PrototypePrimitives, refinePrimitiveLimit))
		b.WriteString("\n")
		writeList(&b, "SYMBOL PRIMITIVES:", head(c.SymbolPrimitives, refinePrimitiveLimit))
	}

	b.WriteString("\n=== END PHYSICS CONTEXT ===\n")
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	b.WriteString(title + "\n")
	for _, item := range items {
		b.WriteString("  • " + item + "\n")
	}
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

var agentInstructions = map[domain.Agent]string{
	domain.AgentStory: `Use the RESISTANCE and MOMENTUM profiles to shape narrative tension.
Draw from NARRATIVE PRIMITIVES to keep the story coherent with the user's physics.
Let the physics set the story's energy: high inertia means a stuck hero, high velocity an accelerating plot.`,

	domain.AgentPrototype: `Use the RESISTANCE profile to spot which actions will meet friction.
Use the MOMENTUM profile to spot which actions will flow naturally.
Draw from PROTOTYPE PRIMITIVES to suggest physics-aligned experiments.
Design experiments that work with the user's creative physics, not against it.`,

	domain.AgentSymbol: `Use the RESISTANCE and MOMENTUM profiles to select visual metaphors.
Draw heavily from SYMBOL PRIMITIVES; they are the physics-derived visual elements.
Symbols should visibly carry the user's creative physics state.
High inertia calls for heavy, grounded symbols. High charge calls for electric, energetic ones.`,

	domain.AgentRefine: `Use the physics context to check cross-agent coherence.
Story, prototype and symbol language should share one physics metaphor.
If the story speaks of frozen ground while the symbols flow freely, pull the wording together.`,
}

// AgentInstructions returns the agent-specific guidance that accompanies the
// physics block.
func AgentInstructions(agent domain.Agent) string {
	return agentInstructions[agent]
}

// PromptBlock is the physics block plus the agent guidance, ready to append
// to a system prompt.
func PromptBlock(c Context, agent domain.Agent) string {
	block := FormatForPrompt(c, agent)
	if block == "" {
		return ""
	}
	if instr := AgentInstructions(agent); instr != "" {
		block += "\n" + instr + "\n"
	}
	return block
}
