package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/ritual/internal/config"
	"github.com/vampirenirmal/ritual/internal/core"
)

var (
	// Global flags
	configPath string
	logJSON    bool
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ritual",
	Short: "Turn a creative block into a story, a five-day plan and a symbol set",
	Long: `ritual runs a creative challenge through four agents:

  1. Insight:   reads the emotional wound, desire and archetype
  2. Story:     frames the user as the hero of a transformation arc
  3. Prototype: plans a five-day creative sprint
  4. Symbol:    builds a symbol system and color palette

A deterministic physics model keeps their metaphors aligned, the plan is
refined against the symbols, and the bundle is graded for consistency.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if err := os.Setenv("RITUAL_CONFIG", configPath); err != nil {
				return err
			}
		}
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if verbose {
			loaded.LogLevel = "debug"
		}
		setupLogging(cmd.ErrOrStderr(), loaded.SlogLevel(), logJSON)
		cfg = loaded
		return nil
	},
}

func setupLogging(w io.Writer, level slog.Level, asJSON bool) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if asJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $XDG_CONFIG_HOME/ritual/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var ie *core.InputError
		if errors.As(err, &ie) {
			fmt.Fprintln(os.Stderr, ie.Message)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
