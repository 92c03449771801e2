package flywheel

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/TheBitDrifter/bark"
)

// Resources is an indexed container of process-wide singleton values: one
// per Go type, added once via RegisterResource and read or mutated thereafter
// through a ResourceReadHandle or ResourceWriteHandle.
type Resources struct {
	mu    sync.RWMutex
	items []any
	types map[reflect.Type]ResourceId
}

// NewResources constructs an empty resource store.
func NewResources() *Resources {
	return &Resources{types: make(map[reflect.Type]ResourceId)}
}

// RegisterResource registers value under its Go type and returns the
// ResourceId assigned to it. Registering the same type twice is a
// programmer error. Driver.AddResource is the facade most callers use;
// RegisterResource is the primitive it and tests call directly against a
// bare *Resources store.
func RegisterResource[R any](res *Resources, value R) ResourceId {
	t := reflect.TypeOf(value)
	res.mu.Lock()
	defer res.mu.Unlock()
	if _, exists := res.types[t]; exists {
		panic(bark.AddTrace(fmt.Errorf("resource %v already registered", t)))
	}
	boxed := new(R)
	*boxed = value
	id := ResourceId(len(res.items))
	res.items = append(res.items, boxed)
	res.types[t] = id
	return id
}

func resourceIDFor[R any](res *Resources) ResourceId {
	var zero R
	t := reflect.TypeOf(zero)
	res.mu.RLock()
	defer res.mu.RUnlock()
	id, ok := res.types[t]
	if !ok {
		panic(bark.AddTrace(fmt.Errorf("resource %v was never added", t)))
	}
	return id
}

// ResourceReadHandle grants read access to a resource of type R, declared to
// the scheduler via ReadsResource(handle.ID()).
type ResourceReadHandle[R any] struct{ id ResourceId }

// NewResourceRead resolves a read handle for resource type R, which must
// already have been added to res.
func NewResourceRead[R any](res *Resources) ResourceReadHandle[R] {
	return ResourceReadHandle[R]{id: resourceIDFor[R](res)}
}

// ID returns the ResourceId this handle resolves to.
func (h ResourceReadHandle[R]) ID() ResourceId { return h.id }

// Get returns the current value of the resource.
func (h ResourceReadHandle[R]) Get(res *Resources) *R {
	res.mu.RLock()
	defer res.mu.RUnlock()
	return res.items[h.id].(*R)
}

// ResourceWriteHandle grants write access to a resource of type R, declared
// to the scheduler via WritesResource(handle.ID()).
type ResourceWriteHandle[R any] struct{ id ResourceId }

// NewResourceWrite resolves a write handle for resource type R, which must
// already have been added to res.
func NewResourceWrite[R any](res *Resources) ResourceWriteHandle[R] {
	return ResourceWriteHandle[R]{id: resourceIDFor[R](res)}
}

// ID returns the ResourceId this handle resolves to.
func (h ResourceWriteHandle[R]) ID() ResourceId { return h.id }

// Get returns the resource value for in-place mutation. The scheduler's
// conflict graph, not a runtime lock, is what keeps this safe to call
// without synchronization: two systems that both write R are placed in
// different groups and never execute concurrently.
func (h ResourceWriteHandle[R]) Get(res *Resources) *R {
	res.mu.RLock()
	defer res.mu.RUnlock()
	return res.items[h.id].(*R)
}
