// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/accasim-go/accasim/pkg/logging"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = ""
	Commit    = ""

	// Global flags
	logFormat string
	debug     bool

	rootCmd = &cobra.Command{
		Use:     "accasim",
		Short:   "HPC batch workload simulator",
		Long:    `A discrete-event simulator for HPC batch workloads: replays a workload trace against a simulated cluster and reports dispatch, completion, and utilization statistics.`,
		Version: Version,
	}
)

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime)

	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log output format: text, json")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable verbose kernel tracing")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateConfigCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(docsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("accasim version %s\n", Version)
		if BuildTime != "" {
			fmt.Printf("Build Time: %s\n", BuildTime)
		}
		if Commit != "" {
			fmt.Printf("Commit:     %s\n", Commit)
		}
	},
}

// newLogger builds the run's logger from the global --log-format/--debug
// flags, matching the teacher CLI's createClient pattern of turning flags
// into a configured collaborator right before use.
func newLogger() logging.Logger {
	cfg := logging.DefaultConfig()
	cfg.Version = Version
	if logFormat == string(logging.FormatJSON) {
		cfg.Format = logging.FormatJSON
	}
	if debug {
		cfg.Level = slog.LevelDebug
	}
	return logging.NewLogger(cfg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
