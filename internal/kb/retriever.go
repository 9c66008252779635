// Package kb is the knowledge-base side of the pipeline: per-agent search
// profiles, the composite-query searcher with its cache, and a SQLite
// backed retriever that ranks stored chunks by embedding similarity.
package kb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vampirenirmal/ritual/internal/domain"
)

// RankedChunk is one retrieved knowledge-base passage.
type RankedChunk struct {
	SourceLabel  string  `json:"sourceLabel"`
	SectionTitle string  `json:"sectionTitle,omitempty"`
	Content      string  `json:"content"`
	Similarity   float64 `json:"similarity"`
	CharCount    int     `json:"charCount"`
}

// Profile is the fixed retrieval configuration of one agent.
type Profile struct {
	Agent     domain.Agent
	TopK      int
	Threshold float64
	Hints     []string
}

// Retriever runs a semantic search for a composite query. Implementations
// should honor the profile's TopK and Threshold; the Searcher enforces both
// again either way.
type Retriever interface {
	Retrieve(ctx context.Context, profile Profile, query string) ([]RankedChunk, error)
}

var ErrUnknownAgent = errors.New("no retrieval profile for agent")

// RetrievalError wraps a failure of the underlying knowledge store.
type RetrievalError struct {
	Agent domain.Agent
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("knowledge retrieval for %s failed: %v", e.Agent, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// DefaultProfiles returns the built-in agent profiles.
func DefaultProfiles() map[domain.Agent]Profile {
	return map[domain.Agent]Profile{
		domain.AgentInsight: {
			Agent:     domain.AgentInsight,
			TopK:      7,
			Threshold: 0.55,
			Hints: []string{
				"emotional diagnostics", "archetypes", "identity", "creative tension",
				"founder psychology", "psychological patterns", "inner conflicts",
			},
		},
		domain.AgentStory: {
			Agent:     domain.AgentStory,
			TopK:      6,
			Threshold: 0.55,
			Hints: []string{
				"Human Story Engine", "narrative framework", "myth structure", "archetypal story",
				"hero journey", "transformation arc", "symbolic narrative",
			},
		},
		domain.AgentPrototype: {
			Agent:     domain.AgentPrototype,
			TopK:      8,
			Threshold: 0.50,
			Hints: []string{
				"5-Day Prototype Ritual", "Creative Acceleration", "Speed Studio", "anti-bureaucracy",
				"experiments", "rituals", "rapid prototyping", "hands-on creation", "expressive experiments",
			},
		},
		domain.AgentSymbol: {
			Agent:     domain.AgentSymbol,
			TopK:      7,
			Threshold: 0.55,
			Hints: []string{
				"symbolic mapping", "symbol dictionary", "color psychology", "geometry",
				"metaphor", "visual language", "archetypal imagery", "design symbolism",
			},
		},
	}
}

const (
	maxQueryTextRunes = 300
	noContext         = "No relevant KB context found."
)

// CompositeQuery joins the profile hints, any extra hints and the start of
// the user text into one retrieval query.
func CompositeQuery(p Profile, userText string, extraHints ...string) string {
	hints := make([]string, 0, len(p.Hints)+len(extraHints))
	hints = append(hints, p.Hints...)
	for _, h := range extraHints {
		if h = strings.TrimSpace(h); h != "" {
			hints = append(hints, h)
		}
	}
	text := []rune(strings.TrimSpace(userText))
	if len(text) > maxQueryTextRunes {
		text = text[:maxQueryTextRunes]
	}
	return strings.Join(hints, " ") + " " + string(text)
}

// FormatContext renders chunks as numbered, source-labelled passages for a
// prompt. An empty result renders an explicit placeholder.
func FormatContext(chunks []RankedChunk) string {
	if len(chunks) == 0 {
		return noContext
	}
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		source := c.SourceLabel
		if c.SectionTitle != "" {
			source += " - " + c.SectionTitle
		}
		parts[i] = fmt.Sprintf("[%d] Source: %s\n%s", i+1, source, c.Content)
	}
	return strings.Join(parts, "\n\n---\n\n")
}
