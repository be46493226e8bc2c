// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var docsOutputDir string

func init() {
	docsCmd.Flags().StringVarP(&docsOutputDir, "output", "o", "./docs/cli", "Output directory for generated markdown docs")
}

var docsCmd = &cobra.Command{
	Use:    "generate-docs",
	Short:  "Generate markdown documentation for the CLI",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(docsOutputDir, 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		absPath, err := filepath.Abs(docsOutputDir)
		if err != nil {
			return fmt.Errorf("resolving output directory: %w", err)
		}
		if err := doc.GenMarkdownTree(rootCmd, absPath); err != nil {
			return fmt.Errorf("generating markdown docs: %w", err)
		}
		fmt.Printf("generated CLI docs in %s\n", absPath)
		return nil
	},
}
