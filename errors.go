package flywheel

import "fmt"

// LockedRegistryError is returned by Registry.Spawn when it is called while a
// Cursor holds the registry locked.
type LockedRegistryError struct{}

func (e LockedRegistryError) Error() string {
	return "registry is currently locked by an active cursor"
}

// StaleEntityIDError is the error MustResolve panics with (wrapped in a
// trace) when an EntityID no longer names a live entity.
type StaleEntityIDError struct {
	ID EntityID
}

func (e StaleEntityIDError) Error() string {
	return fmt.Sprintf("entity id %v refers to a recycled slot", e.ID)
}
