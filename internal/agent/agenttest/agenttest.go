// Package agenttest provides canned, schema-valid agent replies and a
// responder that serves them, for tests and dry runs that must not reach a
// model.
package agenttest

import (
	"fmt"
	"strings"

	"github.com/vampirenirmal/ritual/internal/domain"
	"github.com/vampirenirmal/ritual/internal/llm"
)

// UserText is a challenge whose extracted quotes match the canned insight.
const UserText = "I keep starting projects and abandoning them because I fear judgment. " +
	"I want to build something real and share it with the world."

const InsightReply = `{
  "emotional_summary": "Restless creative energy trapped behind a fear of being judged before the work is finished.",
  "core_wound": "Fear of judgment from others",
  "core_desire": "To build something real and share it",
  "archetype_guess": "The Creator",
  "supporting_quotes": [
    "I keep starting projects and abandoning them because I fear judgment",
    "A quote the model made up"
  ]
}`

const StoryReply = `{
  "hero_description": "A creator with a drawer full of unfinished beginnings",
  "villain_description": "The voice of judgment that whispers every draft is not enough",
  "current_chapter": "Circling the same first steps, abandoning each project at the edge of sharing",
  "desired_chapter": "Shipping rough, real work into the world and letting it breathe",
  "story_paragraph": "The creator keeps a drawer of beginnings. Each time judgment speaks, another draft goes in. This time the creator builds in public, and the fear loses its grip."
}`

const PrototypeReply = `{
  "goal": "Build and share one small, real piece of work in five days",
  "constraints": ["One hour a day", "Share something every day", "No polishing after day four"],
  "day_by_day_plan": [
    {"day": 1, "focus": "Name the fear", "tasks": ["Write the judgment you fear in one line", "Choose one tiny thing to build", "Sketch it badly on purpose"]},
    {"day": 2, "focus": "Rough creation", "tasks": ["Build the ugliest working version", "Show it to one friend", "Note where the fear spoke"]},
    {"day": 3, "focus": "Core gesture", "tasks": ["Cut everything that is not essential", "Make a bolder second draft", "Keep both drafts visible"]},
    {"day": 4, "focus": "Exposure", "tasks": ["Share a work in progress publicly", "Collect three reactions", "Change one thing from the feedback"]},
    {"day": 5, "focus": "Release", "tasks": ["Finish a shareable version", "Release it without a final polish", "Write what you want to build next"]}
  ],
  "potential_ai_features": ["A gentle critique assistant", "A daily prompt generator"],
  "risks": ["Fear of judgment returns on day four; share with one person first"]
}`

const SymbolReply = `{
  "primary_symbol": "A kiln where the fear of judgment is fired into finished work, turning what was fragile into something that can be shared",
  "secondary_symbols": ["An open drawer", "A lantern carried into a crowd"],
  "conceptual_motifs": ["Heat that hardens", "Doors left ajar"],
  "ui_motifs": ["Progress shown as glowing embers", "Draft cards that can be flipped open"],
  "color_palette_suggestions": ["Ember red (#8B2500) - held fear", "Gold (#FFD700) - the pull to create", "Ash (#3A3A3A)", "Cream #FFF5E1 - openness", "Sky (#87CEEB) - release"]
}`

// RefineReply keeps the plan shape of PrototypeReply and rewrites the prose.
const RefineReply = `{
  "goal": "Carry one small, real piece of work through the kiln and share it in five days",
  "constraints": ["One hour a day at the kiln", "Share something every day", "No polishing after day four"],
  "day_by_day_plan": [
    {"day": 1, "focus": "Name the fear", "tasks": ["Write the judgment you fear in one line, then open the drawer", "Choose one tiny thing to build", "Sketch it badly on purpose"]},
    {"day": 2, "focus": "Rough creation", "tasks": ["Build the ugliest working version", "Show it to one friend by lantern light", "Note where the fear spoke"]},
    {"day": 3, "focus": "Core gesture", "tasks": ["Cut everything that is not essential", "Make a bolder second draft", "Keep both drafts visible"]},
    {"day": 4, "focus": "Exposure", "tasks": ["Share a work in progress publicly", "Collect three reactions", "Change one thing from the feedback"]},
    {"day": 5, "focus": "Release", "tasks": ["Fire a shareable version", "Release it without a final polish", "Write what you want to build next"]}
  ],
  "potential_ai_features": ["A gentle critique assistant", "A daily prompt generator"],
  "risks": ["The kiln cools on day four when judgment returns; share with one person first"]
}`

// persona maps the opening words of each system prompt to its agent.
var persona = []struct {
	prefix string
	agent  domain.Agent
}{
	{"You are the Insight Agent", domain.AgentInsight},
	{"You are the Story Architect", domain.AgentStory},
	{"You are the Prototype Engineer", domain.AgentPrototype},
	{"You are the Symbol Weaver", domain.AgentSymbol},
	{"You are refining", domain.AgentRefine},
}

// AgentOf identifies which agent a system prompt belongs to.
func AgentOf(system string) (domain.Agent, bool) {
	for _, p := range persona {
		if strings.HasPrefix(system, p.prefix) {
			return p.agent, true
		}
	}
	return "", false
}

// Replies returns the canned reply of every agent.
func Replies() map[domain.Agent]string {
	return map[domain.Agent]string{
		domain.AgentInsight:   InsightReply,
		domain.AgentStory:     StoryReply,
		domain.AgentPrototype: PrototypeReply,
		domain.AgentSymbol:    SymbolReply,
		domain.AgentRefine:    RefineReply,
	}
}

// Responder answers each agent from replies, falling back to the canned
// reply for agents not listed.
func Responder(replies map[domain.Agent]string) func(system, user string) (string, error) {
	all := Replies()
	for agent, reply := range replies {
		all[agent] = reply
	}
	return func(system, _ string) (string, error) {
		agent, ok := AgentOf(system)
		if !ok {
			return "", fmt.Errorf("agenttest: unrecognized system prompt %.40q", system)
		}
		return all[agent], nil
	}
}

// NewGenerator is a MockGenerator backed by Responder(replies).
func NewGenerator(replies map[domain.Agent]string) *llm.MockGenerator {
	gen := llm.NewMockGenerator()
	gen.Responder = Responder(replies)
	return gen
}
