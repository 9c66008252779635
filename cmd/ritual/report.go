package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/vampirenirmal/ritual/internal/agent"
	"github.com/vampirenirmal/ritual/internal/core"
)

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("─", len([]rune(title))))
}

// printReport renders a report for the terminal.
func printReport(w io.Writer, r *core.SessionReport) {
	c := r.Consistency
	fmt.Fprintf(w, "Session %s  (%s)\n", r.ID, r.Duration())
	fmt.Fprintf(w, "Consistency: %d/100 %s\n", c.Score, c.Rating)

	section(w, "Insight")
	fmt.Fprintf(w, "%s\n", r.Insight.EmotionalSummary)
	fmt.Fprintf(w, "Core wound:  %s\n", r.Insight.CoreWound)
	fmt.Fprintf(w, "Core desire: %s\n", r.Insight.CoreDesire)
	fmt.Fprintf(w, "Archetype:   %s\n", r.Insight.ArchetypeGuess)
	for _, q := range r.Insight.SupportingQuotes {
		fmt.Fprintf(w, "  “%s”\n", q)
	}

	section(w, "Story")
	fmt.Fprintf(w, "Hero:    %s\n", r.Story.HeroDescription)
	fmt.Fprintf(w, "Villain: %s\n", r.Story.VillainDescription)
	fmt.Fprintf(w, "From:    %s\n", r.Story.CurrentChapter)
	fmt.Fprintf(w, "To:      %s\n\n", r.Story.DesiredChapter)
	fmt.Fprintln(w, r.Story.StoryParagraph)

	title := "Five-day prototype"
	if r.Refined {
		title += " (refined)"
	}
	section(w, title)
	fmt.Fprintf(w, "Goal: %s\n", r.Prototype.Goal)
	for _, day := range r.Prototype.DayByDayPlan {
		fmt.Fprintf(w, "Day %d: %s\n", day.Day, day.Focus)
		for _, task := range day.Tasks {
			fmt.Fprintf(w, "  - %s\n", task)
		}
	}
	if len(r.Prototype.Risks) > 0 {
		fmt.Fprintf(w, "Risks: %s\n", strings.Join(r.Prototype.Risks, "; "))
	}

	section(w, "Symbols")
	fmt.Fprintf(w, "Primary: %s\n", r.Symbol.PrimarySymbol)
	if len(r.Symbol.SecondarySymbols) > 0 {
		fmt.Fprintf(w, "Secondary: %s\n", strings.Join(r.Symbol.SecondarySymbols, ", "))
	}
	fmt.Fprintln(w, "Palette:")
	for _, line := range strings.Split(agent.FormatColorEmotions(r.Symbol.ColorPaletteSuggestions), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}

	section(w, "Consistency notes")
	for _, note := range c.Notes {
		fmt.Fprintf(w, "%s\n", note)
	}

	if r.SSIC != nil {
		section(w, "Physics")
		fmt.Fprintf(w, "Resistance: %s\n", r.SSIC.Resistance)
		fmt.Fprintf(w, "Momentum:   %s\n", r.SSIC.Momentum)
	}
	if len(r.Degraded) > 0 {
		names := make([]string, len(r.Degraded))
		for i, a := range r.Degraded {
			names[i] = a.String()
		}
		fmt.Fprintf(w, "\nFell back to placeholders: %s\n", strings.Join(names, ", "))
	}
}
