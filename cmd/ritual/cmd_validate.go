package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/ritual/internal/config"
	"github.com/vampirenirmal/ritual/internal/core"
)

var (
	validateFile string
	initForce    bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [text...]",
	Short: "Check a challenge against the input rules without running agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(cmd.InOrStdin(), validateFile, args)
		if err != nil {
			return err
		}
		bounds := core.InputBounds{Min: cfg.Input.MinLength, Max: cfg.Input.MaxLength}
		result := bounds.Validate(text)
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		return result.Err()
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current settings",
	Long: `Writes the effective configuration to the config path. API keys are
stored as environment placeholders, never in clear text.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.Path()
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", path)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "Read the challenge from a file")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}
