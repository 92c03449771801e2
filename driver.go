package flywheel

import (
	"fmt"
	"reflect"
)

// Driver is the top-level facade: it owns one Registry, one Resources store,
// and the ordered startup/system stages systems are registered into.
//
// Stage handles are marker types (any named type works) resolved through a
// driver-owned map, so stage identity never rests on package-global mutable
// state.
type Driver struct {
	registry *Registry
	res      *Resources

	startup    []*Scheduler
	systems    []*Scheduler
	ranStartup bool

	startupHandles map[reflect.Type]int
	systemHandles  map[reflect.Type]int
}

func newDriver() *Driver {
	return &Driver{
		registry:       NewRegistry(),
		res:            NewResources(),
		startupHandles: make(map[reflect.Type]int),
		systemHandles:  make(map[reflect.Type]int),
	}
}

// Registry returns the driver's archetype registry, for callers that spawn
// initial entities before Run.
func (d *Driver) Registry() *Registry { return d.registry }

// Resources returns the driver's resource store.
func (d *Driver) Resources() *Resources { return d.res }

// AddComponent registers component type C with the driver's registry and
// returns a handle for reading and writing its column.
func AddComponent[C any](d *Driver) AccessibleComponent[C] {
	return FactoryNewComponent[C](d.registry)
}

// AddResource registers value as the driver's singleton instance of its Go
// type and returns the ResourceId assigned to it.
func AddResource[R any](d *Driver, value R) ResourceId {
	return RegisterResource(d.res, value)
}

// AddStartupStage declares a new startup stage identified by marker type H,
// run once in declaration order before AddSystemStage stages begin running
// every Run call. Declaring the same H twice is a programmer error.
func AddStartupStage[H any](d *Driver) {
	addStage[H](d, d.startupHandles, &d.startup)
}

// AddSystemStage declares a new per-tick stage identified by marker type H,
// run in declaration order on every Run call.
func AddSystemStage[H any](d *Driver) {
	addStage[H](d, d.systemHandles, &d.systems)
}

func addStage[H any](d *Driver, handles map[reflect.Type]int, stages *[]*Scheduler) {
	t := reflect.TypeFor[H]()
	if _, exists := handles[t]; exists {
		panic(fmt.Sprintf("flywheel: stage %v declared twice", t))
	}
	handles[t] = len(*stages)
	*stages = append(*stages, NewScheduler(t.String()))
}

// AddStartup registers sys into the startup stage identified by H, which
// must already have been declared with AddStartupStage.
func AddStartup[H any](d *Driver, sys System) {
	addSystem[H](d, d.startupHandles, d.startup, sys)
}

// AddSystem registers sys into the per-tick stage identified by H, which
// must already have been declared with AddSystemStage.
func AddSystem[H any](d *Driver, sys System) {
	addSystem[H](d, d.systemHandles, d.systems, sys)
}

func addSystem[H any](d *Driver, handles map[reflect.Type]int, stages []*Scheduler, sys System) {
	t := reflect.TypeFor[H]()
	idx, ok := handles[t]
	if !ok {
		panic(fmt.Sprintf("flywheel: tried to add system %T to undeclared stage %v", sys, t))
	}
	stages[idx].AddSystem(sys)
}

// Run finalizes every stage's scheduler (idempotent), executes every startup
// stage exactly once, then executes every system stage once. Call Run
// repeatedly — once per tick — for the system stages to run again; startup
// stages never run a second time on the same Driver.
func (d *Driver) Run() {
	if !d.ranStartup {
		for _, s := range d.startup {
			s.Execute(d.registry, d.res)
		}
		d.ranStartup = true
	}
	for _, s := range d.systems {
		s.Execute(d.registry, d.res)
	}
	Metrics.Report("default", d.registry)
}
