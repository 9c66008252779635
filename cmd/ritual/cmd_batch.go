package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/ritual/internal/core"
)

var (
	batchConcurrency int
	batchSave        bool
	batchDryRun      bool
	batchJSON        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Run one session per line of a file",
	Long: `Runs a session for every non-empty line of the file, several at a time.
Lines starting with # are skipped. Sessions share one retrieval cache; a
failing session does not stop the others.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "n", 0, "Sessions in flight (default: limits.batch_concurrency)")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "Save every completed report")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "Use canned agent replies instead of a model")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "Print results as JSON")
}

type batchLine struct {
	Index  int                 `json:"index"`
	Report *core.SessionReport `json:"report,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening batch file: %w", err)
	}
	texts, err := readLines(f)
	f.Close()
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return fmt.Errorf("%s holds no challenges", args[0])
	}

	concurrency := batchConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Limits.BatchConcurrency
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, batchDryRun)
	if err != nil {
		return err
	}
	defer a.Close()

	results := a.pipeline.Batch(ctx, texts, concurrency)

	if batchSave {
		store := newReportStore(cfg)
		for _, r := range results {
			if r.Report == nil {
				continue
			}
			if _, err := store.Save(ctx, r.Report); err != nil {
				return err
			}
		}
	}

	out := cmd.OutOrStdout()
	if batchJSON {
		lines := make([]batchLine, len(results))
		for i, r := range results {
			lines[i] = batchLine{Index: r.Index, Report: r.Report}
			if r.Err != nil {
				lines[i].Error = r.Err.Error()
			}
		}
		if err := writeJSON(out, lines); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(out, "%3d  FAILED  %v\n", r.Index+1, r.Err)
				continue
			}
			c := r.Report.Consistency
			fmt.Fprintf(out, "%3d  %3d/100 %-9s  %s  %s\n", r.Index+1, c.Score, c.Rating, r.Report.ID, r.Report.Insight.ArchetypeGuess)
		}
	}

	if n := core.CountFailed(results); n > 0 {
		return fmt.Errorf("%d of %d sessions failed", n, len(results))
	}
	return nil
}

// readLines returns the trimmed non-empty lines of r, skipping # comments.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}
	return lines, nil
}
