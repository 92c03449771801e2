package flywheel

// factory implements the factory pattern for flywheel's constructor-shaped
// types.
type factory struct{}

// Factory is the global factory instance for constructing flywheel registries,
// filter queries, and cursors.
var Factory factory

// NewRegistry creates a new, empty Registry.
func (f factory) NewRegistry() *Registry {
	return NewRegistry()
}

// NewQuery creates a new filter-tree Query bound to r.
func (f factory) NewQuery(r *Registry) Query {
	return NewQuery(r)
}

// NewCursor creates a new Cursor over r matching every id in ids, narrowed
// by the optional filter.
func (f factory) NewCursor(r *Registry, ids []ComponentId, filter QueryNode) *Cursor {
	return newCursor(r, ids, filter)
}

// NewDriver creates a new Driver with its own Registry and Resources store.
func (f factory) NewDriver() *Driver {
	return newDriver()
}

// FactoryNewComponent registers T with registry r and returns a handle for
// reading and writing its column.
func FactoryNewComponent[T any](r *Registry) AccessibleComponent[T] {
	return NewComponent[T](r)
}
