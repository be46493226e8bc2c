// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"fmt"

	"github.com/accasim-go/accasim/model"
)

// stringOf coerces a raw attribute value (typically int64, float64, or
// string, depending on whether it came from the trace reader or a
// hand-built test fixture) to a string.
func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// int64Of coerces a raw numeric attribute value to int64.
func int64Of(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float64:
		return int64(t)
	case float32:
		return int64(t)
	default:
		return 0
	}
}

// resourceSpecOf coerces a raw per-node resource map into a
// model.ResourceSpec.
func resourceSpecOf(v any) model.ResourceSpec {
	out := make(model.ResourceSpec)
	switch t := v.(type) {
	case model.ResourceSpec:
		for k, amount := range t {
			out[k] = amount
		}
	case map[string]int64:
		for k, amount := range t {
			out[k] = amount
		}
	case map[string]any:
		for k, amount := range t {
			out[k] = int64Of(amount)
		}
	}
	return out
}
