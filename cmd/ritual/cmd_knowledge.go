package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/ritual/internal/domain"
	"github.com/vampirenirmal/ritual/internal/kb"
)

var searchJSON bool

// searchCmd runs one agent's knowledge search
var searchCmd = &cobra.Command{
	Use:   "search <agent> <text...>",
	Short: "Search the knowledge base with an agent's profile",
	Long: `Runs the same composite-query search an agent runs during a session.

Agents: insight, story, prototype, symbol`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print chunks as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openKnowledgeBase(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	searcher := kb.NewSearcher(store)
	chunks, err := searcher.Search(ctx, domain.Agent(strings.ToLower(args[0])), strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		return writeJSON(out, chunks)
	}
	if len(chunks) == 0 {
		fmt.Fprintln(out, "No chunks above the similarity threshold.")
		return nil
	}
	for i, c := range chunks {
		title := c.SourceLabel
		if c.SectionTitle != "" {
			title += " › " + c.SectionTitle
		}
		fmt.Fprintf(out, "%2d. [%.3f] %s\n", i+1, c.Similarity, title)
		fmt.Fprintf(out, "    %s\n", truncate(strings.Join(strings.Fields(c.Content), " "), 160))
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx, cfg.Paths.KnowledgeBase, offlineEmbedder{})
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Knowledge base: %s\n", cfg.Paths.KnowledgeBase)
	fmt.Fprintln(out, strings.Repeat("─", 40))
	fmt.Fprintf(out, "Chunks:          %d\n", stats.TotalChunks)
	fmt.Fprintf(out, "Avg chunk size:  %d chars\n", stats.AvgChunkSize)
	if len(stats.TopSources) > 0 {
		fmt.Fprintln(out, "Top sources:")
		for _, s := range stats.TopSources {
			fmt.Fprintf(out, "  %-24s %d\n", s.Source, s.Count)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
