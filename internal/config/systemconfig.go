// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package config parses the system configuration document described in
// spec.md §6: node groups and their per-node resource capacities, the
// recognized resource names in display order, and the output formatting
// templates for the scheduling and pretty-print logs. It is distinct from
// pkg/config, which holds process-level CLI settings.
package config

import (
	"encoding/json"
	"fmt"
	"sort"

	simerrors "github.com/accasim-go/accasim/pkg/errors"
)

// GroupSpec is one node-group template: its name, how many nodes to
// instantiate from it, and its per-resource capacity.
type GroupSpec struct {
	Name     string
	Count    int
	Capacity map[string]int64
}

// SystemConfig is the fully decoded, order-preserving system document.
type SystemConfig struct {
	// Groups is ordered exactly as declared in the document. Order
	// matters: it drives the Job Factory's per-group capacity search
	// (§4.3) and the Resource Pool's node-naming sequence.
	Groups []GroupSpec

	// NodePrefix names every instantiated node, e.g. "node" -> node1,
	// node2, ...
	NodePrefix string

	// Resources lists every recognized resource name, in the display
	// order used by pretty-print columns and the Resource Pool's usage
	// dump (spec.md §6, §9's "config-driven resource display order").
	Resources []string

	// SchedulingFormat is the `{name}`-placeholder template for the
	// scheduling log (one line per finished job).
	SchedulingFormat string

	// PrettyPrintFormat is the `{name}`-placeholder template for the
	// pretty-print log, plus its header line.
	PrettyPrintFormat string
	PrettyPrintHeader string

	// LowWatermark is the admission batch low-watermark from §4.5.5's
	// main loop: when fewer than this many future admission batches
	// remain loaded, the driver pulls more from the reader.
	LowWatermark int
}

// rawDocument mirrors the JSON shape of the system config document before
// tuple decoding. Groups is a raw json.RawMessage because it may arrive
// either as a plain JSON object (order not guaranteed, acceptable for a
// single-group system) or as a tuple-encoded ordered list (the general
// case, order-preserving).
type rawDocument struct {
	Groups            json.RawMessage `json:"groups"`
	NodePrefix        string          `json:"node_prefix"`
	Resources         json.RawMessage `json:"resources"`
	SchedulingFormat  string          `json:"scheduling_output_format"`
	PrettyPrintFormat string          `json:"pretty_print_format"`
	PrettyPrintHeader string          `json:"pretty_print_header"`
	LowWatermark      int             `json:"low_watermark"`
}

// rawGroupEntry is one [name, {count, capacity...}] pair inside a
// tuple-encoded groups list.
type rawGroupEntry struct {
	Name  string
	Count int
	Cap   map[string]int64
}

// Parse validates a system configuration document against the embedded
// schema (schema.go), then decodes it, resolving every
// `{"__tuple__": true, "items": [...]}` marker back into an ordered
// sequence per spec.md §6.
func Parse(data []byte) (*SystemConfig, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding system config: %w", err)
	}

	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	groups, err := decodeGroups(raw.Groups)
	if err != nil {
		return nil, err
	}
	if err := checkDuplicateGroups(groups); err != nil {
		return nil, err
	}

	resources, err := decodeStringTuple(raw.Resources)
	if err != nil {
		return nil, fmt.Errorf("decoding resources: %w", err)
	}

	prefix := raw.NodePrefix
	if prefix == "" {
		prefix = "node"
	}

	cfg := &SystemConfig{
		Groups:            groups,
		NodePrefix:        prefix,
		Resources:         resources,
		SchedulingFormat:  raw.SchedulingFormat,
		PrettyPrintFormat: raw.PrettyPrintFormat,
		PrettyPrintHeader: raw.PrettyPrintHeader,
		LowWatermark:      raw.LowWatermark,
	}
	if cfg.LowWatermark <= 0 {
		cfg.LowWatermark = 5
	}
	return cfg, nil
}

// tupleMarker is the `{"__tuple__": true, "items": [...]}` envelope
// spec.md §6 describes for encoding order-sensitive sequences in a
// JSON-like document whose native object type would otherwise lose
// declaration order.
type tupleMarker struct {
	Tuple bool              `json:"__tuple__"`
	Items []json.RawMessage `json:"items"`
}

// decodeGroups accepts either a tuple-encoded ordered list of
// [name, {count, resource...}] pairs, or (for the common single- or
// few-group case) a plain JSON object keyed by group name. Go's map
// iteration order is not stable, so object-form groups are sorted by
// name for a deterministic, if arbitrary, order.
func decodeGroups(raw json.RawMessage) ([]GroupSpec, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var marker tupleMarker
	if err := json.Unmarshal(raw, &marker); err == nil && marker.Tuple {
		return decodeGroupTuple(marker.Items)
	}

	var obj map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decoding groups: %w", err)
	}
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]GroupSpec, 0, len(names))
	for _, name := range names {
		g, err := groupFromFields(name, obj[name])
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func decodeGroupTuple(items []json.RawMessage) ([]GroupSpec, error) {
	out := make([]GroupSpec, 0, len(items))
	for _, item := range items {
		var pair []json.RawMessage
		if err := json.Unmarshal(item, &pair); err != nil || len(pair) != 2 {
			return nil, fmt.Errorf("malformed group tuple entry: %s", item)
		}
		var name string
		if err := json.Unmarshal(pair[0], &name); err != nil {
			return nil, fmt.Errorf("decoding group name: %w", err)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(pair[1], &fields); err != nil {
			return nil, fmt.Errorf("decoding group %q fields: %w", name, err)
		}
		g, err := groupFromFields(name, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func groupFromFields(name string, fields map[string]json.RawMessage) (GroupSpec, error) {
	g := GroupSpec{Name: name, Capacity: make(map[string]int64)}
	for key, raw := range fields {
		if key == "count" {
			if err := json.Unmarshal(raw, &g.Count); err != nil {
				return g, fmt.Errorf("group %q: decoding count: %w", name, err)
			}
			continue
		}
		var amount int64
		if err := json.Unmarshal(raw, &amount); err != nil {
			return g, fmt.Errorf("group %q: decoding resource %q: %w", name, key, err)
		}
		g.Capacity[key] = amount
	}
	if g.Count <= 0 {
		g.Count = 1
	}
	return g, nil
}

// decodeStringTuple accepts either a tuple marker or a plain JSON array of
// strings; both preserve order (an array always does), the marker form
// exists so a document generator can emit resources the same way it emits
// groups.
func decodeStringTuple(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var marker tupleMarker
	if err := json.Unmarshal(raw, &marker); err == nil && marker.Tuple {
		out := make([]string, 0, len(marker.Items))
		for _, item := range marker.Items {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding ordered string list: %w", err)
	}
	return out, nil
}

func checkDuplicateGroups(groups []GroupSpec) error {
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if _, dup := seen[g.Name]; dup {
			return simerrors.NewConfigError(simerrors.ErrorCodeDuplicateGroup, fmt.Sprintf("duplicate group name %q", g.Name))
		}
		seen[g.Name] = struct{}{}
	}
	return nil
}
