// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"sync/atomic"

	"github.com/accasim-go/accasim/model"
	simerrors "github.com/accasim-go/accasim/pkg/errors"
	"github.com/accasim-go/accasim/pkg/logging"
)

// SchedulingPreprocessor builds the scheduling log's Preprocessor: one
// line per finished job, rendered through template (spec.md §6). Missing
// attributes are logged at Warn via logger and substituted with "NA".
func SchedulingPreprocessor(template string, logger logging.Logger) Preprocessor {
	f := NewFormatter(template)
	return func(job model.Job) string {
		return f.Render(job, func(err *simerrors.SimError) {
			if logger != nil {
				logger.Warn("scheduling log: missing attribute", "error", err.Error())
			}
		})
	}
}

// PrettyPrintPreprocessor builds the pretty-print log's Preprocessor:
// same template rendering as the scheduling log, but prepends header
// once, the first time it sees a job with EndOrder == 1 (spec.md §6).
func PrettyPrintPreprocessor(template, header string, logger logging.Logger) Preprocessor {
	f := NewFormatter(template)
	var headerWritten int32
	return func(job model.Job) string {
		line := f.Render(job, func(err *simerrors.SimError) {
			if logger != nil {
				logger.Warn("pretty-print log: missing attribute", "error", err.Error())
			}
		})
		if job.EndOrder == 1 && atomic.CompareAndSwapInt32(&headerWritten, 0, 1) && header != "" {
			return header + "\n" + line
		}
		return line
	}
}
