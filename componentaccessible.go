package flywheel

import "github.com/TheBitDrifter/table"

// AccessibleComponent extends a base Component with table-based accessibility
// and the ComponentId a Registry assigned it. It provides methods to retrieve
// component values through a Cursor or directly by PackageIndex.
type AccessibleComponent[T any] struct {
	Component
	table.Accessor[T] // concrete.
	id                ComponentId
}

// NewComponent registers T with registry r and returns a handle for reading
// and writing T's column. Registering the same Go type twice against the same
// registry is harmless: table.Schema.Register is idempotent per element type.
func NewComponent[T any](r *Registry) AccessibleComponent[T] {
	iden := table.FactoryNewElementType[T]()
	ac := AccessibleComponent[T]{
		Component: iden,
		Accessor:  table.FactoryNewAccessor[T](iden),
	}
	ac.id = r.componentID(iden)
	return ac
}

// ComponentID returns the ComponentId this handle was assigned by its
// Registry. (ID, promoted from the embedded Component, returns the
// underlying element type id instead.)
func (c AccessibleComponent[T]) ComponentID() ComponentId {
	return c.id
}

// GetFromCursor retrieves a component value for the entity at the cursor's
// current position.
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	return c.Get(
		cursor.entityIndex-1,
		cursor.currentArchetype.table,
	)
}

// GetFromCursorSafe safely retrieves a component value, checking whether the
// component exists on the archetype at the cursor's current position.
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	ok := c.Accessor.Check(cursor.currentArchetype.table)
	if ok {
		return true, c.GetFromCursor(cursor)
	}
	return false, nil
}

// CheckCursor reports whether the component exists in the archetype at the
// cursor's current position.
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return c.Accessor.Check(cursor.currentArchetype.table)
}

// GetFromIndex retrieves a component value at a raw PackageIndex within r.
func (c AccessibleComponent[T]) GetFromIndex(r *Registry, idx PackageIndex) *T {
	arch := r.tables[idx.Table]
	return c.Get(idx.Column, arch.table)
}
