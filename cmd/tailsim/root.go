package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/tailsim/pkg/cli"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "tailsim",
	Short: "tailsim - tail sampling policy simulator",
	Long: `tailsim evaluates tail-sampling policies against complete traces and
reports the per-policy and final sampling decisions.

It is meant for trying out collector sampling policies before rolling them out:
  - Validate policy files offline
  - Replay recorded OTLP traces through the policies
  - Watch a policy file and re-simulate on every change
  - Keep an audit log of every decision in SQLite`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults and TAILSIM_* environment)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}
