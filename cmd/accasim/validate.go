// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/accasim-go/accasim/internal/config"
)

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config FILE",
	Short: "Parse and schema-validate a system configuration document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		cfg, err := config.Parse(data)
		if err != nil {
			return err
		}

		fmt.Printf("OK: %d group(s), %d resource(s), low_watermark=%d\n",
			len(cfg.Groups), len(cfg.Resources), cfg.LowWatermark)
		for _, g := range cfg.Groups {
			fmt.Printf("  group %-12s count=%-4d capacity=%v\n", g.Name, g.Count, g.Capacity)
		}
		return nil
	},
}
