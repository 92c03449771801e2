package flywheel

import (
	"iter"
	"sort"

	"github.com/TheBitDrifter/table"
)

// Cursor iterates the rows of every archetype table that matches a fixed set
// of required component ids, resolved once through the registry's query
// cache instead of re-scanning every archetype on every call. An optional
// filter QueryNode narrows the matched set further (e.g. excludes),
// evaluated once per table at Initialize time, not per row.
type Cursor struct {
	registry    *Registry
	ids         []ComponentId
	fingerprint Fingerprint
	filter      QueryNode

	tableIndices     []TableIndex
	tablePos         int
	currentArchetype *archetype
	entityIndex      int
	remaining        int
	initialized      bool
}

// newCursor builds a cursor over registry r matching every id in ids, with
// an optional filter applied to the candidate archetypes.
func newCursor(r *Registry, ids []ComponentId, filter QueryNode) *Cursor {
	sorted := append([]ComponentId(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &Cursor{
		registry:    r,
		ids:         sorted,
		fingerprint: fingerprintOf(sorted),
		filter:      filter,
	}
}

// Next advances to the next matching entity and reports whether one exists.
func (c *Cursor) Next() bool {
	if !c.initialized {
		c.Initialize()
	}
	if c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

// advance moves to the next matched table that still has rows.
func (c *Cursor) advance() bool {
	for c.tablePos < len(c.tableIndices)-1 {
		c.tablePos++
		c.currentArchetype = c.registry.tables[c.tableIndices[c.tablePos]]
		c.remaining = c.currentArchetype.table.Length()
		c.entityIndex = 0
		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
	}
	c.Reset()
	return false
}

// Entities yields (row index, table) pairs across every matched archetype.
func (c *Cursor) Entities() iter.Seq2[int, table.Table] {
	return func(yield func(int, table.Table) bool) {
		c.Initialize()
		for _, ti := range c.tableIndices {
			arch := c.registry.tables[ti]
			length := arch.table.Length()
			for row := 0; row < length; row++ {
				if !yield(row, arch.table) {
					c.Reset()
					return
				}
			}
		}
		c.Reset()
	}
}

// Initialize locks the registry and resolves the matched table set from the
// query cache, applying the optional filter once per candidate table.
func (c *Cursor) Initialize() {
	if c.initialized {
		return
	}

	c.registry.addLock(cursorLockBit)
	matched := c.registry.queryMatches(c.fingerprint, c.ids)

	c.tableIndices = c.tableIndices[:0]
	for idx := range matched {
		arch := c.registry.tables[idx]
		if c.filter != nil && !c.filter.Evaluate(arch) {
			continue
		}
		c.tableIndices = append(c.tableIndices, idx)
	}
	sort.Slice(c.tableIndices, func(i, j int) bool { return c.tableIndices[i] < c.tableIndices[j] })

	c.tablePos = -1
	c.entityIndex = 0
	c.remaining = 0
	if len(c.tableIndices) > 0 {
		c.tablePos = 0
		c.currentArchetype = c.registry.tables[c.tableIndices[0]]
		c.remaining = c.currentArchetype.table.Length()
	}
	c.initialized = true
}

// Reset clears cursor state and releases the registry lock.
func (c *Cursor) Reset() {
	c.tablePos = 0
	c.entityIndex = 0
	c.remaining = 0
	c.tableIndices = nil
	c.initialized = false
	c.registry.removeLock(cursorLockBit)
}

// PackageIndex returns the row the cursor currently sits on.
func (c *Cursor) PackageIndex() PackageIndex {
	return PackageIndex{Table: c.currentArchetype.index, Column: c.entityIndex - 1}
}

// EntityIndex returns the current row index within the current archetype.
func (c *Cursor) EntityIndex() int {
	return c.entityIndex
}

// RemainingInArchetype returns the number of rows left in the current archetype.
func (c *Cursor) RemainingInArchetype() int {
	return c.remaining - c.entityIndex
}

// TotalMatched returns the total row count across every matched archetype.
func (c *Cursor) TotalMatched() int {
	if !c.initialized {
		c.Initialize()
	}
	total := 0
	for _, ti := range c.tableIndices {
		total += c.registry.tables[ti].table.Length()
	}
	c.Reset()
	return total
}
