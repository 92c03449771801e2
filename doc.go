/*
Package flywheel is an archetype-based Entity-Component-System runtime with a
conflict-graph scheduler.

Entities are opaque row addresses (PackageIndex) or, for code that must hold
onto an entity across structural changes, a generational EntityID. Components
are plain data registered against a Registry; systems are stateless values
declaring the component and resource accesses they perform, so the Scheduler
can group non-conflicting systems within a stage and run each group's members
concurrently.

Core Concepts:

  - Registry: archetype storage — one table per distinct component set.
  - AccessibleComponent: a typed handle for reading/writing one component's
    column, obtained via AddComponent.
  - PackageIndex: a short-lived (table, column) cursor onto one row.
  - EntityID: a stable handle that survives structural mutation, resolved
    back to a PackageIndex on demand.
  - CommandBuffer: deferred spawns/destroys/modifies a system queues instead
    of mutating the Registry directly.
  - Scheduler: partitions a stage's systems into conflict-free groups and
    runs each group to completion before the next stage starts.
  - Driver: the facade that wires a Registry, a Resources store, and the
    startup/system stages together and runs them.

Basic Usage:

	driver := Factory.NewDriver()
	position := AddComponent[Position](driver)
	velocity := AddComponent[Velocity](driver)

	pkg := NewPackage(driver.Registry())
	With(pkg, position, Position{})
	With(pkg, velocity, Velocity{X: 1})
	driver.Registry().Spawn(pkg, 100)

	AddSystemStage[MotionStage](driver)
	AddSystem[MotionStage](driver, SystemFunc{
		Name: "Motion",
		Access: []Accessor{W(position), R(velocity)},
		Fn: func(r *Registry, res *Resources, cmds *CommandBuffer) error {
			q := NewQuery2(r, position, velocity, nil)
			for q.Next() {
				pos := position.GetFromCursor(q.Cursor)
				vel := velocity.GetFromCursor(q.Cursor)
				pos.X += vel.X
			}
			return nil
		},
	})

	driver.Run()
*/
package flywheel
