package flywheel

import (
	"fmt"
	"sort"
	"sync"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

const cursorLockBit = 0

// Registry is the archetype storage for one world: every table (one per
// distinct component set), the schema that assigns ComponentIds, the query
// cache folded into as tables are created, and the pending CommandBuffer
// systems submit their structural changes into between stages.
type Registry struct {
	mu            sync.RWMutex
	schema        table.Schema
	entryIndex    table.EntryIndex
	tables        []*archetype
	byFingerprint map[Fingerprint]TableIndex
	byHandle      map[table.Table]TableIndex
	componentType map[ComponentId]table.ElementType
	cache         *queryCache
	pending       *CommandBuffer
	locks         mask.Mask256
}

// NewRegistry constructs an empty Registry with its own schema, so
// ComponentIds assigned by one Registry never leak into another.
func NewRegistry() *Registry {
	return &Registry{
		schema:        table.Factory.NewSchema(),
		entryIndex:    table.Factory.NewEntryIndex(),
		byFingerprint: make(map[Fingerprint]TableIndex),
		byHandle:      make(map[table.Table]TableIndex),
		componentType: make(map[ComponentId]table.ElementType),
		cache:         newQueryCache(),
		pending:       NewCommandBuffer(),
	}
}

// componentID registers c with the schema (idempotent) and returns the
// ComponentId the schema assigned it: the row-index bit the table/mask
// libraries already allocate in registration order, reused directly instead
// of a parallel id scheme.
func (r *Registry) componentID(c Component) ComponentId {
	r.schema.Register(c)
	id := ComponentId(r.schema.RowIndexFor(c))
	r.mu.Lock()
	if _, ok := r.componentType[id]; !ok {
		r.componentType[id] = c
	}
	r.mu.Unlock()
	return id
}

// Locked reports whether any cursor currently holds a lock on the registry.
// While locked, structural mutation is not attempted directly; callers defer
// it through a CommandBuffer instead.
func (r *Registry) Locked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.locks.IsEmpty()
}

func (r *Registry) addLock(bit uint32)    { r.mu.Lock(); r.locks.Mark(bit); r.mu.Unlock() }
func (r *Registry) removeLock(bit uint32) { r.mu.Lock(); r.locks.Unmark(bit); r.mu.Unlock() }

// archetypeFor returns the archetype matching ids exactly, creating it (and
// folding it into the query cache) on first use.
func (r *Registry) archetypeFor(ids []ComponentId, comps []Component) (*archetype, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.archetypeForLocked(ids, comps)
}

// archetypeForLocked is archetypeFor for callers already holding r.mu;
// Flush applies every structural change under the registry lock and still
// needs to allocate destination archetypes mid-flush.
func (r *Registry) archetypeForLocked(ids []ComponentId, comps []Component) (*archetype, error) {
	fp := fingerprintOf(ids)

	if idx, ok := r.byFingerprint[fp]; ok {
		arch := r.tables[idx]
		sorted := append([]ComponentId(nil), ids...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		if !sameIds(arch.ids, sorted) {
			return nil, fmt.Errorf("archetype fingerprint collision: %v and %v both fold to %d", arch.ids, sorted, fp)
		}
		return arch, nil
	}

	arch, err := newArchetype(r.schema, r.entryIndex, TableIndex(len(r.tables)), fp, ids, comps)
	if err != nil {
		return nil, err
	}
	r.tables = append(r.tables, arch)
	r.byFingerprint[fp] = arch.index
	r.byHandle[arch.table] = arch.index
	r.cache.update(arch.index, arch)
	return arch, nil
}

// Spawn creates n rows from Package p directly, bypassing the command
// buffer. Intended for initial world setup, before any stage is running;
// inside a system, use CommandBuffer.Spawn instead. Returns
// LockedRegistryError while a Cursor holds the registry locked.
func (r *Registry) Spawn(p *Package, n int) ([]PackageIndex, error) {
	if r.Locked() {
		return nil, LockedRegistryError{}
	}
	arch, err := r.archetypeFor(p.componentIds(), p.components())
	if err != nil {
		return nil, err
	}
	entries, err := arch.table.NewEntries(n)
	if err != nil {
		return nil, err
	}
	out := make([]PackageIndex, n)
	for i, e := range entries {
		p.apply(arch.table, e.Index())
		out[i] = PackageIndex{Table: arch.index, Column: e.Index()}
	}
	return out, nil
}

// Submit merges b into the registry's pending command buffer, key-wise:
// spawns under a shared fingerprint are appended, destroys under a shared
// index are OR'd, and modifies under a shared index are extended.
func (r *Registry) Submit(b *CommandBuffer) {
	if b.isEmpty() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for fp, pkgs := range b.spawns {
		r.pending.spawns[fp] = append(r.pending.spawns[fp], pkgs...)
	}
	for idx, drop := range b.destroy {
		r.pending.destroy[idx] = r.pending.destroy[idx] || drop
	}
	for idx, m := range b.modify {
		existing, ok := r.pending.modify[idx]
		if !ok {
			existing = &Modify{}
			r.pending.modify[idx] = existing
		}
		existing.extend(m)
	}
}

// Flush applies the registry's pending command buffer in the fixed order
// modifies, then spawns, then destroys, and resets the pending buffer. It is
// the driver's job to call Flush between stages/groups, never a system's.
//
// Every pending (table, column) pair is resolved to its stable entry id
// before anything is applied: a modify's transfer swap-removes its source
// row, which would shift any raw column index still waiting in the same
// flush. Entry ids survive swap-removes, so order within each phase stops
// mattering once the resolution pass is done.
func (r *Registry) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	destroys := make(map[table.EntryID]struct{}, len(r.pending.destroy))
	for idx, drop := range r.pending.destroy {
		if !drop {
			continue
		}
		entry, err := r.tables[idx.Table].table.Entry(idx.Column)
		if err != nil {
			return err
		}
		destroys[entry.ID()] = struct{}{}
	}

	type pendingModify struct {
		id table.EntryID
		m  *Modify
	}
	modifies := make([]pendingModify, 0, len(r.pending.modify))
	for idx, m := range r.pending.modify {
		entry, err := r.tables[idx.Table].table.Entry(idx.Column)
		if err != nil {
			return err
		}
		if _, doomed := destroys[entry.ID()]; doomed {
			// The row is also being drop-destroyed this flush; destroy wins
			// and the modify is moot.
			continue
		}
		modifies = append(modifies, pendingModify{id: entry.ID(), m: m})
	}

	for _, pm := range modifies {
		if err := r.applyModify(pm.id, pm.m); err != nil {
			return err
		}
	}

	for _, pkgs := range r.pending.spawns {
		for _, p := range pkgs {
			arch, err := r.archetypeForLocked(p.componentIds(), p.components())
			if err != nil {
				return err
			}
			entries, err := arch.table.NewEntries(1)
			if err != nil {
				return err
			}
			p.apply(arch.table, entries[0].Index())
		}
	}

	byTable := make(map[table.Table][]int)
	for id := range destroys {
		entry, err := r.entryIndex.Entry(int(id) - 1)
		if err != nil {
			return err
		}
		byTable[entry.Table()] = append(byTable[entry.Table()], int(id))
	}
	for tbl, ids := range byTable {
		if _, err := tbl.DeleteEntries(ids...); err != nil {
			return err
		}
	}

	r.pending = NewCommandBuffer()
	return nil
}

// applyModify transfers the row named by entry id to the archetype matching
// its post-edit component set, then writes the edit's inserted values at the
// row's post-transfer position. table.Table.TransferEntries already preserves
// the value of every retained column and zero-initializes newly added ones,
// so this never hand-rolls column-by-column copying. The entry is resolved
// through the entry index at each step rather than held across the transfer:
// a held Entry's index goes stale the moment the transfer swap-removes rows.
func (r *Registry) applyModify(entryID table.EntryID, m *Modify) error {
	entry, err := r.entryIndex.Entry(int(entryID) - 1)
	if err != nil {
		return err
	}
	srcIdx, ok := r.byHandle[entry.Table()]
	if !ok {
		return fmt.Errorf("modify targets a table this registry does not own")
	}
	arch := r.tables[srcIdx]

	removed := make(map[ComponentId]struct{}, len(m.remove))
	for _, id := range m.remove {
		removed[id] = struct{}{}
	}

	destIds := make(map[ComponentId]struct{}, len(arch.ids))
	for _, id := range arch.ids {
		if _, gone := removed[id]; !gone {
			destIds[id] = struct{}{}
		}
	}
	for _, e := range m.insert {
		destIds[e.id] = struct{}{}
	}

	ids := make([]ComponentId, 0, len(destIds))
	comps := make([]Component, 0, len(destIds))
	for id := range destIds {
		ids = append(ids, id)
		comps = append(comps, r.componentType[id].(Component))
	}

	destArch, err := r.archetypeForLocked(ids, comps)
	if err != nil {
		return err
	}

	if err := arch.table.TransferEntries(destArch.table, entry.Index()); err != nil {
		return err
	}

	entry, err = r.entryIndex.Entry(int(entryID) - 1)
	if err != nil {
		return err
	}
	for _, e := range m.insert {
		e.setter(destArch.table, entry.Index())
	}
	return nil
}

// queryMatches registers (or verifies) the query over ids under fingerprint
// fp against the registry's query cache, backfilling it against every
// archetype already present if this is the first time fp has been seen.
func (r *Registry) queryMatches(fp Fingerprint, ids []ComponentId) map[TableIndex]struct{} {
	r.mu.RLock()
	existing := r.tables
	r.mu.RUnlock()
	return r.cache.load(fp, ids, existing)
}

// tableCount reports how many distinct archetype tables the registry holds,
// surfaced as a gauge by the metrics package.
func (r *Registry) tableCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables)
}
