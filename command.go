package flywheel

import "github.com/TheBitDrifter/table"

// CommandBuffer accumulates structural mutations declared during one
// system's execution: new entity packages (spawn), rows to remove (destroy),
// and in-place component inserts/removes on existing rows (modify). A system
// never mutates the Registry directly; it writes into its own CommandBuffer
// and the scheduler submits that buffer into the Registry's pending buffer
// once the system returns, so structural changes never race with the
// concurrent reads/writes of a parallel group.
//
// Spawns are keyed by the destination archetype's Fingerprint; destroys and
// modifies are keyed by PackageIndex.
type CommandBuffer struct {
	spawns  map[Fingerprint][]*Package
	destroy map[PackageIndex]bool
	modify  map[PackageIndex]*Modify
}

// NewCommandBuffer returns an empty CommandBuffer.
func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{
		spawns:  make(map[Fingerprint][]*Package),
		destroy: make(map[PackageIndex]bool),
		modify:  make(map[PackageIndex]*Modify),
	}
}

// Spawn enqueues p to be spawned as a new row on the next Flush.
func (b *CommandBuffer) Spawn(p *Package) {
	fp := p.fingerprint()
	b.spawns[fp] = append(b.spawns[fp], p)
}

// Destroy enqueues the row at idx to be removed on the next Flush. If idx is
// also targeted by a Modify in the same flush, the destroy wins: the row is
// dropped and the modify is skipped.
func (b *CommandBuffer) Destroy(idx PackageIndex) {
	b.destroy[idx] = true
}

// Modify enqueues an in-place edit to the row at idx, building the edit
// script with WithInsert/WithRemove inside edit. Multiple Modify calls
// against the same idx within one buffer (or across buffers merged by the
// same Submit) extend the same script rather than overwrite it.
func (b *CommandBuffer) Modify(idx PackageIndex, edit func(*Modify)) {
	m, ok := b.modify[idx]
	if !ok {
		m = &Modify{}
		b.modify[idx] = m
	}
	edit(m)
}

// Accessors always returns nil. A CommandBuffer never itself declares a
// conflicting read or write to the scheduler; only the system holding it,
// through its own query/resource accessors, does.
func (b *CommandBuffer) Accessors() []Accessor { return nil }

func (b *CommandBuffer) isEmpty() bool {
	return len(b.spawns) == 0 && len(b.destroy) == 0 && len(b.modify) == 0
}

// Modify is the edit script for one existing row: components to insert (or
// overwrite, if already present) and components to remove.
type Modify struct {
	insert []packageEntry
	remove []ComponentId
}

// WithInsert adds or overwrites component c's value in Modify m.
func WithInsert[T any](m *Modify, c AccessibleComponent[T], value T) {
	v := value
	setter := func(tbl table.Table, index int) { *c.Get(index, tbl) = v }
	for i, e := range m.insert {
		if e.id == c.id {
			m.insert[i].setter = setter
			return
		}
	}
	m.insert = append(m.insert, packageEntry{id: c.id, et: c.Component, setter: setter})
}

// WithRemove schedules component id for removal in Modify m.
func WithRemove(m *Modify, id ComponentId) {
	m.remove = append(m.remove, id)
}

// extend appends other's edit script onto m, the merge rule used when two
// CommandBuffers targeting the same row are submitted into one Registry.
func (m *Modify) extend(other *Modify) {
	for _, e := range other.insert {
		replaced := false
		for i, existing := range m.insert {
			if existing.id == e.id {
				m.insert[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			m.insert = append(m.insert, e)
		}
	}
	m.remove = append(m.remove, other.remove...)
}
