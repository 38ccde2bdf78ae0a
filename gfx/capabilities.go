package gfx

import (
	"sort"

	"golang.org/x/exp/slog"

	"github.com/noon-engine/noon/hal"
)

type CapabilityKind int

const (
	CapabilityLayer CapabilityKind = iota
	CapabilityInstanceExtension
	CapabilityDeviceExtension
)

func (k CapabilityKind) String() string {
	switch k {
	case CapabilityLayer:
		return "layer"
	case CapabilityInstanceExtension:
		return "instance extension"
	case CapabilityDeviceExtension:
		return "device extension"
	}
	return "capability"
}

// Requirement asks for one capability by name. Optional requirements that
// are not available are logged and dropped.
type Requirement struct {
	Name     string
	Optional bool
}

func Required(names ...string) []Requirement {
	reqs := make([]Requirement, 0, len(names))
	for _, name := range names {
		reqs = append(reqs, Requirement{Name: name})
	}
	return reqs
}

func Optional(names ...string) []Requirement {
	reqs := make([]Requirement, 0, len(names))
	for _, name := range names {
		reqs = append(reqs, Requirement{Name: name, Optional: true})
	}
	return reqs
}

// CapabilityRegistry answers whether a layer or extension is available.
type CapabilityRegistry struct {
	kind    CapabilityKind
	records map[string]hal.Capability
}

func NewCapabilityRegistry(kind CapabilityKind, records []hal.Capability) *CapabilityRegistry {
	r := &CapabilityRegistry{
		kind:    kind,
		records: make(map[string]hal.Capability, len(records)),
	}
	for _, record := range records {
		r.records[record.Name] = record
	}
	return r
}

func (r *CapabilityRegistry) Kind() CapabilityKind {
	return r.kind
}

func (r *CapabilityRegistry) Has(name string) bool {
	_, ok := r.records[name]
	return ok
}

func (r *CapabilityRegistry) Get(name string) (hal.Capability, bool) {
	record, ok := r.records[name]
	return record, ok
}

func (r *CapabilityRegistry) Len() int {
	return len(r.records)
}

// Names returns the available names in sorted order.
func (r *CapabilityRegistry) Names() []string {
	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the names from reqs that can be enabled, in request
// order and without duplicates. A missing required entry fails with
// ErrEnvironment; a missing optional entry is logged and skipped.
func (r *CapabilityRegistry) Resolve(reqs []Requirement, logger *slog.Logger) ([]string, error) {
	var enabled []string
	seen := make(map[string]bool, len(reqs))
	// A name requested both ways counts as required.
	required := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		if !req.Optional {
			required[req.Name] = true
		}
	}

	for _, req := range reqs {
		if seen[req.Name] {
			continue
		}
		seen[req.Name] = true

		if r.Has(req.Name) {
			enabled = append(enabled, req.Name)
			continue
		}
		if required[req.Name] {
			return nil, environmentErrorf("required %s %s is not available", r.kind, req.Name)
		}
		logger.Warn("optional capability not available, skipping",
			slog.String("kind", r.kind.String()),
			slog.String("name", req.Name))
	}
	return enabled, nil
}

// RequireAny fails with ErrEnvironment when none of the registries has a
// single record, which only happens with a broken driver install.
func RequireAny(registries ...*CapabilityRegistry) error {
	for _, r := range registries {
		if r.Len() > 0 {
			return nil
		}
	}
	return environmentErrorf("no layers or extensions enumerable; the GPU driver looks broken")
}
