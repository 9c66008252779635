package agent

import (
	"fmt"
	"strings"

	"github.com/vampirenirmal/ritual/internal/domain"
)

// PlaceholderSuffix ends every text field of a fallback output, so degraded
// sections are easy to spot in a report.
const PlaceholderSuffix = "unavailable due to parsing error"

func placeholder(what string) string {
	return what + " " + PlaceholderSuffix
}

// IsPlaceholder reports whether s was produced by a fallback.
func IsPlaceholder(s string) bool {
	return strings.HasSuffix(s, PlaceholderSuffix)
}

func FallbackInsight() domain.InsightOutput {
	return domain.InsightOutput{
		EmotionalSummary: placeholder("Analysis"),
		CoreWound:        placeholder("Core wound"),
		CoreDesire:       placeholder("Core desire"),
		ArchetypeGuess:   placeholder("Archetype"),
		SupportingQuotes: []string{},
	}
}

func FallbackStory() domain.StoryOutput {
	return domain.StoryOutput{
		HeroDescription:    placeholder("Hero description"),
		VillainDescription: placeholder("Villain description"),
		CurrentChapter:     placeholder("Current chapter"),
		DesiredChapter:     placeholder("Desired chapter"),
		StoryParagraph:     placeholder("Story"),
	}
}

var fallbackDays = [5][3]string{
	{"Write the challenge in one honest sentence", "List what already exists", "Pick one small thing to make"},
	{"Make a rough first version by hand", "Show it to one trusted person", "Note where you felt resistance"},
	{"Cut the idea down to its core gesture", "Make a second, bolder version", "Keep every draft visible"},
	{"Try the piece in a real setting", "Collect three honest reactions", "Change one thing that surprised you"},
	{"Finish a version you can share", "Share it without polishing further", "Write down what comes next"},
}

// FallbackPrototype is a generic but structurally valid five-day plan.
func FallbackPrototype() domain.PrototypeOutput {
	p := domain.PrototypeOutput{
		Goal: placeholder("Prototype plan"),
		Constraints: []string{
			"Work in short daily sessions",
			"Use only what is already at hand",
			"Make something visible every day",
		},
	}
	for i := 1; i <= 3; i++ {
		p.PotentialAIFeatures = append(p.PotentialAIFeatures, placeholder(fmt.Sprintf("AI feature suggestion %d", i)))
		p.Risks = append(p.Risks, placeholder(fmt.Sprintf("Risk %d", i)))
	}
	for i, tasks := range fallbackDays {
		p.DayByDayPlan = append(p.DayByDayPlan, domain.DayPlan{
			Day:   i + 1,
			Focus: placeholder(fmt.Sprintf("Day %d focus", i+1)),
			Tasks: append([]string(nil), tasks[:]...),
		})
	}
	return p
}

// FallbackSymbol has an empty palette, which the color mapper turns into the
// neutral gray entry.
func FallbackSymbol() domain.SymbolOutput {
	return domain.SymbolOutput{
		PrimarySymbol:           placeholder("Symbol"),
		SecondarySymbols:        []string{placeholder("Secondary symbols")},
		ConceptualMotifs:        []string{placeholder("Conceptual motifs")},
		UIMotifs:                []string{placeholder("UI motifs")},
		ColorPaletteSuggestions: []string{},
	}
}
