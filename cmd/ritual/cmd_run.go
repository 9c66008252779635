package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	runFile   string
	runSave   bool
	runDryRun bool
	runJSON   bool
)

var runCmd = &cobra.Command{
	Use:   "run [text...]",
	Short: "Run one session over a creative challenge",
	Long: `Runs the full pipeline over one piece of text and prints the report.

The text comes from the arguments, from --file, or from stdin when no
arguments are given or the only argument is "-".

Example:
  ritual run "I keep starting projects and abandoning them because I fear judgment."
  ritual run --dry-run --json < challenge.txt`,
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "Read the challenge from a file")
	runCmd.Flags().BoolVar(&runSave, "save", false, "Save the report under the output directory")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Use canned agent replies instead of a model")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the report as JSON")
}

func runSession(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd.InOrStdin(), runFile, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.Limits.SessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Limits.SessionTimeout)
		defer cancel()
	}

	a, err := newApp(ctx, cfg, runDryRun)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.pipeline.Run(ctx, text)
	if err != nil {
		return err
	}

	if runSave {
		dir, err := newReportStore(cfg).Save(ctx, report)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved to %s\n", dir)
	}

	out := cmd.OutOrStdout()
	if runJSON {
		return writeJSON(out, report)
	}
	printReport(out, report)
	return nil
}

// readText picks the challenge from a file, the arguments or stdin.
func readText(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", file, err)
		}
		return string(data), nil
	case len(args) == 0 || (len(args) == 1 && args[0] == "-"):
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	default:
		return strings.Join(args, " "), nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
