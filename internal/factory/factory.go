// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package factory validates raw per-job attribute maps (as produced by a
// workload reader) and constructs model.JobSpec values, enforcing the
// field-renaming, mandatory-field, and resource-type rules of the
// simulator's admission pipeline.
package factory

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	simerrors "github.com/accasim-go/accasim/pkg/errors"
	"github.com/accasim-go/accasim/internal/resourcemgr"
	"github.com/accasim-go/accasim/model"
	"github.com/accasim-go/accasim/pkg/logging"
)

// Caster converts a raw attribute value into its declared type.
type Caster func(any) (any, error)

// AttributeType describes one user-declared extra attribute.
type AttributeType struct {
	Name     string
	Cast     Caster
	Optional bool
}

// Option configures a Factory at construction time.
type Option func(*Factory) error

// WithMapper sets the raw-field-name -> canonical-name renaming table
// applied before any other processing.
func WithMapper(mapper map[string]string) Option {
	return func(f *Factory) error {
		f.mapper = mapper
		return nil
	}
}

// WithAttribute declares one extra user attribute. Duplicate names
// (against another declared attribute, or an intrinsic field name) are a
// CategoryConfiguration error.
func WithAttribute(attr AttributeType) Option {
	return func(f *Factory) error {
		if _, taken := f.attrNames[attr.Name]; taken || isIntrinsic(attr.Name) {
			return simerrors.NewConfigError(simerrors.ErrorCodeDuplicateAttribute, fmt.Sprintf("attribute name %q already set", attr.Name))
		}
		f.attrNames[attr.Name] = struct{}{}
		if attr.Optional {
			f.optional[attr.Name] = attr
		} else {
			f.mandatory[attr.Name] = attr
		}
		return nil
	}
}

// WithLogger overrides the factory's logger (defaults to a no-op).
func WithLogger(logger logging.Logger) Option {
	return func(f *Factory) error {
		f.logger = logger
		return nil
	}
}

// Factory constructs validated model.JobSpec values from raw attribute
// maps, grounded on the resource manager for group capacities and system
// resource types.
type Factory struct {
	mu sync.Mutex

	manager *resourcemgr.Manager
	mapper  map[string]string

	attrNames map[string]struct{}
	mandatory map[string]AttributeType
	optional  map[string]AttributeType

	checked          bool
	missingResources map[string]struct{}
	systemResources  []string

	logger logging.Logger
}

var intrinsicFields = map[string]struct{}{
	"id": {}, "queued_time": {}, "duration": {}, "expected_duration": {},
	"requested_nodes": {}, "requested_resources": {},
}

func isIntrinsic(name string) bool {
	_, ok := intrinsicFields[name]
	return ok
}

// New builds a Factory bound to manager, applying opts in order.
func New(manager *resourcemgr.Manager, opts ...Option) (*Factory, error) {
	f := &Factory{
		manager:         manager,
		attrNames:       make(map[string]struct{}),
		mandatory:       make(map[string]AttributeType),
		optional:        make(map[string]AttributeType),
		systemResources: manager.ResourceTypes(),
		logger:          logging.NoOpLogger{},
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Build renames, validates, and casts raw into a model.JobSpec.
func (f *Factory) Build(raw map[string]any) (*model.JobSpec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	work := make(map[string]any, len(raw))
	for k, v := range raw {
		work[k] = v
	}
	for oldName, newName := range f.mapper {
		if v, ok := work[oldName]; ok {
			delete(work, oldName)
			work[newName] = v
		}
	}

	if err := f.checkMandatoryFields(work); err != nil {
		return nil, err
	}

	spec := &model.JobSpec{}
	spec.ID = stringOf(work["id"])
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	spec.QueuedTime = int64Of(work["queued_time"])
	spec.Duration = int64Of(work["duration"])
	spec.ExpectedDuration = int64Of(work["expected_duration"])

	if err := f.resolveRequest(work, spec); err != nil {
		return nil, err
	}

	if !f.checked {
		f.checkRequestedResources(spec)
	} else if len(f.missingResources) > 0 {
		for r := range f.missingResources {
			if _, present := spec.RequestedResources[r]; !present {
				spec.RequestedResources[r] = 0
			}
		}
	}

	extras, err := f.castExtras(work)
	if err != nil {
		return nil, err
	}
	spec.Extras = extras

	return spec, nil
}

func (f *Factory) checkMandatoryFields(work map[string]any) error {
	required := []string{"id", "queued_time", "duration", "expected_duration"}
	var missing []string
	for _, name := range required {
		if _, ok := work[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name, attr := range f.mandatory {
		_ = attr
		if _, ok := work[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		id := stringOf(work["id"])
		return simerrors.NewAdmissionError(simerrors.ErrorCodeMissingMandatoryField, id, fmt.Sprintf("missing attributes: %v", missing))
	}
	return nil
}

// resolveRequest fills in spec.RequestedNodes and spec.RequestedResources,
// deriving them from raw per-resource totals when not supplied directly.
func (f *Factory) resolveRequest(work map[string]any, spec *model.JobSpec) error {
	if rr, ok := work["requested_resources"]; ok {
		spec.RequestedResources = resourceSpecOf(rr)
		if n, ok := work["requested_nodes"]; ok {
			spec.RequestedNodes = int(int64Of(n))
			return nil
		}
		spec.RequestedNodes = f.deriveNodesFromPerNode(spec.RequestedResources)
		return nil
	}

	totals := make(model.ResourceSpec, len(f.systemResources))
	for _, r := range f.systemResources {
		if v, ok := work[r]; ok {
			total := int64Of(v)
			if total < 0 {
				return simerrors.NewAdmissionError(simerrors.ErrorCodeMissingMandatoryField, spec.ID,
					fmt.Sprintf("request for %s is not feasible (%d)", r, total))
			}
			totals[r] = total
		}
	}

	nodes := 0
	groups := f.manager.GroupsAvailableResource()
	for r, total := range totals {
		best := 0
		for _, cap := range groups {
			if cap[r] <= 0 {
				continue
			}
			n := int(math.Ceil(float64(total) / float64(cap[r])))
			if n > best {
				best = n
			}
		}
		if best > nodes {
			nodes = best
		}
	}
	if nodes == 0 {
		nodes = 1
	}
	spec.RequestedNodes = nodes

	perNode := make(model.ResourceSpec, len(totals))
	for r, total := range totals {
		perNode[r] = total / int64(nodes)
	}
	spec.RequestedResources = perNode
	return nil
}

func (f *Factory) deriveNodesFromPerNode(perNode model.ResourceSpec) int {
	groups := f.manager.GroupsAvailableResource()
	best := 1
	for r, amount := range perNode {
		for _, cap := range groups {
			if cap[r] <= 0 {
				continue
			}
			n := int(math.Ceil(float64(amount) / float64(cap[r])))
			if n > best {
				best = n
			}
		}
	}
	return best
}

// checkRequestedResources runs once, on the first job built: it records
// which system resource types the trace never supplies. It raises no
// error itself; MandatoryResourcesPresent reports a missing core or mem.
func (f *Factory) checkRequestedResources(spec *model.JobSpec) {
	missing := make(map[string]struct{})
	for _, r := range f.systemResources {
		if _, ok := spec.RequestedResources[r]; !ok {
			missing[r] = struct{}{}
		}
	}
	f.missingResources = missing
	f.checked = true
}

// MandatoryResourcesPresent reports whether core/mem are both covered,
// called by the driver right after the first Build to raise a
// Configuration fatal error before any dispatch happens.
func (f *Factory) MandatoryResourcesPresent() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, required := range []string{"core", "mem"} {
		if _, missing := f.missingResources[required]; missing {
			return simerrors.NewConfigError(simerrors.ErrorCodeMissingResourceType, fmt.Sprintf("mandatory resource type %q missing from every job request", required))
		}
	}
	return nil
}

func (f *Factory) castExtras(work map[string]any) (map[string]any, error) {
	extras := make(map[string]any)
	for name, attr := range f.mandatory {
		v, err := castAttr(attr, work[name])
		if err != nil {
			return nil, simerrors.NewAdmissionError(simerrors.ErrorCodeMissingMandatoryField, stringOf(work["id"]), err.Error())
		}
		extras[name] = v
	}
	for name, attr := range f.optional {
		raw, present := work[name]
		if !present || raw == nil {
			extras[name] = nil
			continue
		}
		v, err := castAttr(attr, raw)
		if err != nil {
			return nil, simerrors.NewAdmissionError(simerrors.ErrorCodeMissingMandatoryField, stringOf(work["id"]), err.Error())
		}
		extras[name] = v
	}
	return extras, nil
}

func castAttr(attr AttributeType, v any) (any, error) {
	if attr.Cast == nil {
		return v, nil
	}
	return attr.Cast(v)
}
