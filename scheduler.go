package flywheel

import (
	"fmt"
	"sort"
	"time"

	"github.com/TheBitDrifter/bark"
	"golang.org/x/sync/errgroup"
)

// Scheduler holds every system registered for one stage and, once
// finalized, the conflict-free groups they were partitioned into.
type Scheduler struct {
	stage     string
	pending   []*schedNode
	groups    [][]*schedNode
	finalized bool
}

type schedNode struct {
	system    System
	name      string
	accessors []Accessor
	edges     []int
}

// NewScheduler creates an empty Scheduler for one named stage.
func NewScheduler(stage string) *Scheduler {
	return &Scheduler{stage: stage}
}

// systemName prefers sys's own Stringer (SystemFunc sets Name this way) and
// falls back to its concrete type name otherwise.
func systemName(sys System) string {
	if s, ok := sys.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", sys)
}

// AddSystem registers s. Must be called before Finalize.
func (s *Scheduler) AddSystem(sys System) {
	if s.finalized {
		panic(fmt.Sprintf("flywheel: AddSystem called on stage %q after Finalize", s.stage))
	}
	s.pending = append(s.pending, &schedNode{system: sys, name: systemName(sys)})
}

// Finalize computes each system's accessor set, builds the conflict graph
// between every pair, then partitions systems into conflict-free groups by
// greedy first-fit coloring: nodes are sorted by compatible-peer count
// descending and processed from the back, so the least flexible systems are
// placed before the ones that fit almost anywhere.
func (s *Scheduler) Finalize() {
	if s.finalized {
		return
	}

	for _, n := range s.pending {
		n.accessors = n.system.Accessors()
	}

	for i := range s.pending {
		for j := i + 1; j < len(s.pending); j++ {
			if !conflicts(s.pending[i].accessors, s.pending[j].accessors) {
				s.pending[i].edges = append(s.pending[i].edges, j)
				s.pending[j].edges = append(s.pending[j].edges, i)
			}
		}
	}

	sort.SliceStable(s.pending, func(i, j int) bool {
		return len(s.pending[i].edges) > len(s.pending[j].edges)
	})

	var groups [][]*schedNode
	for i := len(s.pending) - 1; i >= 0; i-- {
		node := s.pending[i]
		placed := false
	groupLoop:
		for gi, group := range groups {
			for _, member := range group {
				if conflicts(member.accessors, node.accessors) {
					continue groupLoop
				}
			}
			groups[gi] = append(groups[gi], node)
			placed = true
			break
		}
		if !placed {
			groups = append(groups, []*schedNode{node})
		}
	}

	s.groups = groups
	s.finalized = true
}

// Execute runs every group in order: a one-member group runs directly on the
// calling goroutine, a larger group runs through an errgroup.Group so a
// failing or panicking member aborts the stage for every sibling in that
// group. A returned error aborts the process: systems are expected to
// succeed or signal a programmer bug, not a recoverable runtime condition.
func (s *Scheduler) Execute(r *Registry, res *Resources) {
	if !s.finalized {
		s.Finalize()
	}

	logStageStart(s.stage, len(s.groups))

	for gi, group := range s.groups {
		cmds := make([]*CommandBuffer, len(group))
		for i := range group {
			cmds[i] = NewCommandBuffer()
		}

		start := time.Now()
		switch len(group) {
		case 1:
			s.runOne(group[0], r, res, cmds[0])
		default:
			s.runGroup(group, r, res, cmds)
		}
		Metrics.observeGroup(s.stage, time.Since(start).Seconds())

		names := make([]string, len(group))
		for i, n := range group {
			names[i] = n.name
			r.Submit(cmds[i])
		}
		logGroupExecuted(s.stage, gi, len(group), names)

		if err := r.Flush(); err != nil {
			s.fatal("<flush>", err)
		}
	}
}

func (s *Scheduler) runOne(node *schedNode, r *Registry, res *Resources, cmds *CommandBuffer) {
	if err := s.callSystem(node, r, res, cmds); err != nil {
		s.fatal(node.name, err)
	}
}

func (s *Scheduler) runGroup(group []*schedNode, r *Registry, res *Resources, cmds []*CommandBuffer) {
	var eg errgroup.Group
	for i, node := range group {
		node, cmd := node, cmds[i]
		eg.Go(func() error {
			return s.callSystem(node, r, res, cmd)
		})
	}
	if err := eg.Wait(); err != nil {
		// The failing system's own name was already attached by callSystem's
		// bark.AddTrace wrap; re-deriving it here would require threading an
		// index back out of errgroup, so the stage is enough context for the
		// fatal log.
		s.fatal("<group>", err)
	}
}

func (s *Scheduler) callSystem(node *schedNode, r *Registry, res *Resources, cmds *CommandBuffer) error {
	defer func() {
		if rec := recover(); rec != nil {
			Metrics.countSystemError(s.stage, node.name)
			panic(bark.AddTrace(fmt.Errorf("system %s panicked: %v", node.name, rec)))
		}
	}()
	if err := node.system.Execute(r, res, cmds); err != nil {
		Metrics.countSystemError(s.stage, node.name)
		return bark.AddTrace(fmt.Errorf("system %s: %w", node.name, err))
	}
	return nil
}

func (s *Scheduler) fatal(system string, err error) {
	logSystemPanic(s.stage, system, err)
	_ = Logger.Sync()
	panic(fmt.Sprintf("flywheel: stage %q aborted in system %q: %s", s.stage, system, err))
}

// groupSizes reports the size of every finalized group, for tests that
// assert on the scheduler's conflict-graph coloring without depending on
// goroutine execution order.
func (s *Scheduler) groupSizes() []int {
	sizes := make([]int, len(s.groups))
	for i, g := range s.groups {
		sizes[i] = len(g)
	}
	return sizes
}
