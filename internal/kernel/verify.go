// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"fmt"

	simerrors "github.com/accasim-go/accasim/pkg/errors"
)

// VerifyTermination asserts the two invariants spec.md §4.5.5 requires at
// the end of a run: finished has no duplicates, and its length equals the
// number of jobs admitted over the run's lifetime.
func (k *Kernel) VerifyTermination(admittedCount int) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	seen := make(map[string]struct{}, len(k.finished))
	for _, id := range k.finished {
		if _, dup := seen[id]; dup {
			return simerrors.NewAccountingError(simerrors.ErrorCodeDuplicateFinish, id, "", "", "job id appears twice in finished")
		}
		seen[id] = struct{}{}
	}
	if len(k.finished) != admittedCount {
		return simerrors.NewAccountingError(simerrors.ErrorCodeDuplicateFinish, "", "", "",
			fmt.Sprintf("finished count %d does not match admitted count %d", len(k.finished), admittedCount))
	}
	return nil
}
