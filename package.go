package flywheel

import (
	"sort"

	"github.com/TheBitDrifter/table"
)

// TableIndex names one archetype table within a Registry. It is stable for
// the lifetime of the Registry; archetypes are never compacted or reordered.
type TableIndex int

// PackageIndex is a short-lived cursor onto one row of one archetype table.
// It is produced by iteration (Cursor) or by Registry.Spawn, and it is never
// a stable entity identifier: a structural mutation (modify, destroy,
// swap-remove) can invalidate it without notice. Code that must hold onto an
// entity across a flush boundary should go through EntityID instead.
type PackageIndex struct {
	Table  TableIndex
	Column int
}

// packageEntry is one component slot in a Package or Modify: the component's
// id, its underlying element type (needed to rebuild an archetype's column
// set), and a closure that writes the captured value into a destination row.
type packageEntry struct {
	id     ComponentId
	et     table.ElementType
	setter func(tbl table.Table, index int)
}

// Package bundles the component values for one new entity. It is built up
// with the package-level With function (Go has no generic methods, so the
// builder cannot be a method on Package itself) and consumed by
// Registry.Spawn or CommandBuffer.Spawn.
type Package struct {
	registry *Registry
	entries  []packageEntry
}

// NewPackage starts an empty Package bound to registry r; every component
// added to it must have been registered against r.
func NewPackage(r *Registry) *Package {
	return &Package{registry: r}
}

// With sets component c's value on Package p, replacing any previous value
// for the same component, and returns p for chaining.
func With[T any](p *Package, c AccessibleComponent[T], value T) *Package {
	v := value
	setter := func(tbl table.Table, index int) { *c.Get(index, tbl) = v }
	for i, e := range p.entries {
		if e.id == c.id {
			p.entries[i].setter = setter
			return p
		}
	}
	p.entries = append(p.entries, packageEntry{id: c.id, et: c.Component, setter: setter})
	return p
}

func (p *Package) componentIds() []ComponentId {
	ids := make([]ComponentId, len(p.entries))
	for i, e := range p.entries {
		ids[i] = e.id
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (p *Package) components() []Component {
	comps := make([]Component, len(p.entries))
	for i, e := range p.entries {
		comps[i] = e.et.(Component)
	}
	return comps
}

func (p *Package) fingerprint() Fingerprint {
	return fingerprintOf(p.componentIds())
}

func (p *Package) apply(tbl table.Table, index int) {
	for _, e := range p.entries {
		e.setter(tbl, index)
	}
}
