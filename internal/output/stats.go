// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/accasim-go/accasim/internal/kernel"
)

// WriteStats renders the run's aggregate statistics file, spec.md §6:
// total jobs, makespan, average waiting time, average slowdown. Large
// counters (a long-running trace's makespan can be in the millions of
// seconds) are grouped with thousands separators via x/text's message
// printer, the way a human-facing report should read.
func WriteStats(path string, stats kernel.Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("opening stats file %s: %w", path, err)
	}
	defer f.Close()

	p := message.NewPrinter(language.English)
	_, err = p.Fprintf(f,
		"Total jobs: %d\nMakespan: %d seconds\nAverage waiting time: %.2f seconds\nAverage slowdown: %.2f\n",
		stats.TotalJobs, stats.Makespan, stats.AverageWaitingTime, stats.AverageSlowdown,
	)
	if err != nil {
		return fmt.Errorf("writing stats file %s: %w", path, err)
	}
	return nil
}
