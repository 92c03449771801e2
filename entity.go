package flywheel

import (
	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/table"
)

// EntityID is a stable handle to one row: unlike a PackageIndex, it remains
// valid across structural mutation and swap-remove, resolved on demand
// through the registry's entry index rather than pinning a raw (table,
// column) pair. It is a convenience layer on top of the core PackageIndex
// model; the recycled count detects a slot that has since been reused for a
// different entity.
type EntityID struct {
	id       table.EntryID
	recycled int
}

// SpawnEntity creates one row from Package p and returns a stable EntityID
// for it, going through Registry.Spawn directly (not the deferred command
// buffer); for structural changes made from inside a system, build a
// CommandBuffer instead.
func (r *Registry) SpawnEntity(p *Package) (EntityID, error) {
	indices, err := r.Spawn(p, 1)
	if err != nil {
		return EntityID{}, err
	}
	return r.entityIDFor(indices[0])
}

func (r *Registry) entityIDFor(idx PackageIndex) (EntityID, error) {
	arch := r.tables[idx.Table]
	entry, err := arch.table.Entry(idx.Column)
	if err != nil {
		return EntityID{}, err
	}
	return EntityID{id: entry.ID(), recycled: entry.Recycled()}, nil
}

// Resolve returns the EntityID's current PackageIndex, and false if the
// slot has since been recycled for a different entity (the entity this
// EntityID named was destroyed).
func (r *Registry) Resolve(id EntityID) (PackageIndex, bool) {
	entry, err := r.entryIndex.Entry(int(id.id) - 1)
	if err != nil {
		return PackageIndex{}, false
	}
	if entry.Recycled() != id.recycled {
		return PackageIndex{}, false
	}
	ti, ok := r.tableIndexOf(entry.Table())
	if !ok {
		return PackageIndex{}, false
	}
	return PackageIndex{Table: ti, Column: entry.Index()}, true
}

// Valid reports whether id still names a live entity.
func (r *Registry) Valid(id EntityID) bool {
	_, ok := r.Resolve(id)
	return ok
}

// MustResolve resolves id or panics with a recoverable-trace-wrapped
// StaleEntityIDError, for call sites that already checked Valid or that
// treat a stale handle as a programmer bug rather than an expected outcome.
func (r *Registry) MustResolve(id EntityID) PackageIndex {
	idx, ok := r.Resolve(id)
	if !ok {
		panic(bark.AddTrace(StaleEntityIDError{ID: id}))
	}
	return idx
}

func (r *Registry) tableIndexOf(tbl table.Table) (TableIndex, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ti, ok := r.byHandle[tbl]
	return ti, ok
}
