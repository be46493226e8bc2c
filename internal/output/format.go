// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package output renders finished jobs through the format templates from
// spec.md §6 (scheduling log, pretty-print log) and the run's aggregate
// statistics file, and hosts the bounded async writer that §4.7 and §5
// describe as the kernel's only allowed blocking collaborator besides the
// trace reader.
package output

import (
	"fmt"
	"strconv"
	"strings"

	simerrors "github.com/accasim-go/accasim/pkg/errors"
	"github.com/accasim-go/accasim/model"
)

// Caster formats a single resolved attribute value as text. Named casters
// are referenced by the last path segment of a placeholder, e.g.
// "{slowdown.float2}" applies the "float2" caster to job.Slowdown.
type Caster func(any) string

// Casters is the registry of named formatters a placeholder's final path
// segment may select. "str" (the default when no caster is named) uses
// fmt.Sprintf("%v", ...).
var Casters = map[string]Caster{
	"str": func(v any) string { return fmt.Sprintf("%v", v) },
	"int": func(v any) string {
		switch t := v.(type) {
		case int64:
			return strconv.FormatInt(t, 10)
		case int:
			return strconv.Itoa(t)
		case float64:
			return strconv.FormatInt(int64(t), 10)
		default:
			return fmt.Sprintf("%v", v)
		}
	},
	"float2": func(v any) string {
		switch t := v.(type) {
		case float64:
			return strconv.FormatFloat(t, 'f', 2, 64)
		case int64:
			return strconv.FormatFloat(float64(t), 'f', 2, 64)
		default:
			return fmt.Sprintf("%v", v)
		}
	},
}

// Formatter renders a model.Job through a `{name}`-placeholder template,
// spec.md §6. A placeholder may be a bare attribute name ("{id}"), a
// dotted path into extras ("{extras.user_id}"), or either form suffixed
// with a caster name ("{slowdown.float2}"). An attribute missing on the
// job substitutes "NA" rather than aborting the run (§7's "Attribute soft
// failure").
type Formatter struct {
	template string
}

// NewFormatter builds a Formatter over template.
func NewFormatter(template string) *Formatter {
	return &Formatter{template: template}
}

// Render expands every `{...}` placeholder in the template against job,
// logging (via onMissing, if non-nil) each attribute substituted with
// "NA".
func (f *Formatter) Render(job model.Job, onMissing func(*simerrors.SimError)) string {
	var b strings.Builder
	rest := f.template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		rest = rest[open+1:]
		close := strings.IndexByte(rest, '}')
		if close < 0 {
			// Unterminated placeholder: emit the rest verbatim.
			b.WriteByte('{')
			b.WriteString(rest)
			break
		}
		placeholder := rest[:close]
		rest = rest[close+1:]

		value, ok, caster := resolvePlaceholder(job, placeholder)
		if !ok {
			if onMissing != nil {
				onMissing(simerrors.NewMissingAttributeError(job.ID, placeholder))
			}
			b.WriteString("NA")
			continue
		}
		cast := Casters[caster]
		if cast == nil {
			cast = Casters["str"]
		}
		b.WriteString(cast(value))
	}
	return b.String()
}

// resolvePlaceholder splits a placeholder into a dotted attribute path and
// an optional trailing caster name, then resolves the path against job.
func resolvePlaceholder(job model.Job, placeholder string) (value any, ok bool, caster string) {
	parts := strings.Split(placeholder, ".")
	caster = "str"
	if len(parts) > 1 {
		if _, known := Casters[parts[len(parts)-1]]; known {
			caster = parts[len(parts)-1]
			parts = parts[:len(parts)-1]
		}
	}

	path := parts
	if len(path) == 0 {
		return nil, false, caster
	}

	switch path[0] {
	case "extras":
		if len(path) != 2 {
			return nil, false, caster
		}
		v, present := job.Extra(path[1])
		return v, present, caster
	default:
		v, present := fieldValue(job, path[0])
		return v, present, caster
	}
}

// fieldValue looks up one of the intrinsic Job fields by its snake_case
// name, matching the attribute vocabulary the trace reader and factory
// use elsewhere.
func fieldValue(job model.Job, name string) (any, bool) {
	switch name {
	case "id":
		return job.ID, true
	case "queued_time":
		return job.QueuedTime, true
	case "duration":
		return job.Duration, true
	case "expected_duration":
		return job.ExpectedDuration, true
	case "requested_nodes":
		return job.RequestedNodes, true
	case "start_time":
		return job.StartTime, true
	case "end_time":
		return job.EndTime, true
	case "running_time":
		return job.RunningTime, true
	case "waiting_time":
		return job.WaitingTime, true
	case "slowdown":
		return job.Slowdown, true
	case "assigned_nodes":
		return strings.Join(job.AssignedNodes, ","), true
	case "end_order":
		return job.EndOrder, true
	default:
		v, present := job.Extra(name)
		return v, present
	}
}
