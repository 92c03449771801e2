package flywheel

import (
	"testing"
)

// Test component types shared by this package's other test files.
type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

type Health struct {
	Current, Max int
}

func TestRegistrySpawn(t *testing.T) {
	tests := []struct {
		name        string
		build       func(r *Registry) *Package
		entityCount int
	}{
		{
			name: "single component",
			build: func(r *Registry) *Package {
				pos := NewComponent[Position](r)
				return With(NewPackage(r), pos, Position{})
			},
			entityCount: 10,
		},
		{
			name: "multiple components",
			build: func(r *Registry) *Package {
				pos := NewComponent[Position](r)
				vel := NewComponent[Velocity](r)
				p := NewPackage(r)
				With(p, pos, Position{})
				With(p, vel, Velocity{})
				return p
			},
			entityCount: 5,
		},
		{
			name: "large batch",
			build: func(r *Registry) *Package {
				pos := NewComponent[Position](r)
				vel := NewComponent[Velocity](r)
				hp := NewComponent[Health](r)
				p := NewPackage(r)
				With(p, pos, Position{})
				With(p, vel, Velocity{})
				With(p, hp, Health{})
				return p
			},
			entityCount: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			pkg := tt.build(r)

			indices, err := r.Spawn(pkg, tt.entityCount)
			if err != nil {
				t.Fatalf("Spawn() error = %v", err)
			}
			if len(indices) != tt.entityCount {
				t.Errorf("Spawn() returned %d indices, want %d", len(indices), tt.entityCount)
			}
		})
	}
}

func TestRegistryModify(t *testing.T) {
	r := NewRegistry()
	pos := NewComponent[Position](r)
	vel := NewComponent[Velocity](r)
	hp := NewComponent[Health](r)

	pkg := With(NewPackage(r), pos, Position{X: 1, Y: 2})
	indices, err := r.Spawn(pkg, 1)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	idx := indices[0]

	cmds := NewCommandBuffer()
	cmds.Modify(idx, func(m *Modify) {
		WithInsert(m, vel, Velocity{X: 3, Y: 4})
	})
	r.Submit(cmds)
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	q := NewQuery2[Position, Velocity](r, pos, vel, nil)
	count := 0
	for q.Next() {
		p := pos.GetFromCursor(q.Cursor)
		v := vel.GetFromCursor(q.Cursor)
		if p.X != 1 || p.Y != 2 || v.X != 3 || v.Y != 4 {
			t.Errorf("row = {%v %v}, want {1 2 3 4}", *p, *v)
		}
		// The flush moved the row, so the spawn-time PackageIndex is stale.
		idx = q.PackageIndex()
		count++
	}
	if count != 1 {
		t.Fatalf("matched %d rows after insert-modify, want 1", count)
	}

	// Now move it again: remove Position, add Health. The row should land in
	// a {Velocity, Health} archetype.
	cmds2 := NewCommandBuffer()
	cmds2.Modify(idx, func(m *Modify) {
		WithRemove(m, pos.ComponentID())
		WithInsert(m, hp, Health{Current: 5, Max: 10})
	})
	r.Submit(cmds2)
	if err := r.Flush(); err != nil {
		t.Fatalf("second Flush() error = %v", err)
	}

	q2 := NewQuery1[Position](r, pos, nil)
	if q2.Next() {
		t.Errorf("expected no rows with Position after removal")
	}

	q3 := NewQuery2[Velocity, Health](r, vel, hp, nil)
	if !q3.Next() {
		t.Fatalf("expected one row with Velocity+Health after transfer")
	}
	v := vel.GetFromCursor(q3.Cursor)
	h := hp.GetFromCursor(q3.Cursor)
	if v.X != 3 || v.Y != 4 || h.Current != 5 || h.Max != 10 {
		t.Errorf("transferred row = {%v %v}, want velocity {3 4} health {5 10}", *v, *h)
	}
}

func TestRegistryDestroy(t *testing.T) {
	r := NewRegistry()
	pos := NewComponent[Position](r)

	pkg := With(NewPackage(r), pos, Position{})
	indices, err := r.Spawn(pkg, 3)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	cmds := NewCommandBuffer()
	cmds.Destroy(indices[1])
	r.Submit(cmds)
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	q := NewQuery1[Position](r, pos, nil)
	count := 0
	for q.Next() {
		count++
	}
	if count != 2 {
		t.Errorf("matched %d rows after destroy, want 2", count)
	}
}

func TestEntityIDResolveAndStale(t *testing.T) {
	r := NewRegistry()
	pos := NewComponent[Position](r)

	pkg := With(NewPackage(r), pos, Position{X: 9, Y: 9})
	id, err := r.SpawnEntity(pkg)
	if err != nil {
		t.Fatalf("SpawnEntity() error = %v", err)
	}

	if !r.Valid(id) {
		t.Fatalf("freshly spawned entity should be valid")
	}

	idx, ok := r.Resolve(id)
	if !ok {
		t.Fatalf("Resolve() failed for a live entity")
	}
	p := pos.GetFromIndex(r, idx)
	if p.X != 9 || p.Y != 9 {
		t.Errorf("resolved component = %v, want {9 9}", *p)
	}

	cmds := NewCommandBuffer()
	cmds.Destroy(idx)
	r.Submit(cmds)
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if r.Valid(id) {
		t.Errorf("destroyed entity should no longer be valid")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("MustResolve() on a stale id should panic")
			}
		}()
		r.MustResolve(id)
	}()
}
