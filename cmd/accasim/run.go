// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/accasim-go/accasim/internal/driver"
	"github.com/accasim-go/accasim/pkg/config"
	simerrors "github.com/accasim-go/accasim/pkg/errors"
)

var (
	runTracePath        string
	runSystemConfigPath string
	runOutputDir        string
	runMonitorAddr      string
	runLowWatermark     int
	runDispatchTimeDiff int64
)

func init() {
	runCmd.Flags().StringVar(&runTracePath, "trace", "", "Path to the workload trace file (required)")
	runCmd.Flags().StringVar(&runSystemConfigPath, "config", "", "Path to the system configuration document (required)")
	runCmd.Flags().StringVar(&runOutputDir, "out", "./results", "Directory for scheduling/pretty-print logs and the stats file")
	runCmd.Flags().StringVar(&runMonitorAddr, "monitor", "", "Bind address for the read-only HTTP monitor, e.g. :8090 (disabled if empty)")
	runCmd.Flags().IntVar(&runLowWatermark, "low-watermark", 0, "Override the system config document's low_watermark (0 defers to the document)")
	runCmd.Flags().Int64Var(&runDispatchTimeDiff, "dispatch-time-diff", 0, "Dispatch processing cost added to each decision's expected start_time")
	_ = runCmd.MarkFlagRequired("trace")
	_ = runCmd.MarkFlagRequired("config")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a workload trace through the simulation kernel",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg := config.NewDefault()
		cfg.WorkloadPath = runTracePath
		cfg.SystemConfigPath = runSystemConfigPath
		cfg.OutputDir = runOutputDir
		cfg.MonitorAddr = runMonitorAddr
		cfg.LowWatermark = runLowWatermark
		cfg.DispatchTimeDiff = runDispatchTimeDiff
		cfg.Debug = debug

		if err := cfg.Validate(); err != nil {
			return err
		}

		d := driver.New(cfg, driver.WithLogger(logger))

		start := time.Now()
		stats, err := d.Run(context.Background())
		if err != nil {
			if simerrors.IsFatal(err) {
				log.Printf("simulation aborted: %v", err)
			}
			return err
		}

		fmt.Printf("Simulation finished in %s\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("Total jobs:    %d\n", stats.TotalJobs)
		fmt.Printf("Makespan:      %d seconds\n", stats.Makespan)
		fmt.Printf("Avg wait time: %.2f seconds\n", stats.AverageWaitingTime)
		fmt.Printf("Avg slowdown:  %.2f\n", stats.AverageSlowdown)
		return nil
	},
}
