package flywheel

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// Query is a composable filter tree over component sets, used to narrow the
// archetypes a Cursor considers beyond plain "has every one of these ids"
// (e.g. excludes). It is a supplement on top of the typed Query1..Query4
// tuple builders below, not a replacement for them.
type Query interface {
	QueryNode
	And(items ...interface{}) QueryNode
	Or(items ...interface{}) QueryNode
	Not(items ...interface{}) QueryNode
}

// QueryNode is one node of a filter tree, evaluated against a single
// archetype.
type QueryNode interface {
	Evaluate(arch *archetype) bool
}

// QueryOperation defines the logical operations for query nodes
type QueryOperation int

const (
	OpAnd QueryOperation = iota // Logical AND operation
	OpOr                        // Logical OR operation
	OpNot                       // Logical NOT operation
)

// compositeNode implements a compound query with child nodes
type compositeNode struct {
	registry   *Registry
	op         QueryOperation
	children   []QueryNode
	components []Component
}

// leafNode implements a simple query with no child nodes
type leafNode struct {
	registry   *Registry
	components []Component
}

// query implements the Query interface
type query struct {
	registry *Registry
	root     QueryNode
}

// NewQuery starts a new filter tree bound to registry r, so its nodes can
// resolve each Component to the ComponentId bit r assigned it.
func NewQuery(r *Registry) Query {
	return &query{registry: r}
}

// newCompositeNode creates a new composite query node with the specified operation
func newCompositeNode(r *Registry, op QueryOperation, components []Component) *compositeNode {
	return &compositeNode{
		registry:   r,
		op:         op,
		children:   make([]QueryNode, 0),
		components: components,
	}
}

// newLeafNode creates a new leaf query node with the specified components
func newLeafNode(r *Registry, components []Component) *leafNode {
	return &leafNode{registry: r, components: components}
}

// componentMask builds a mask over comps using registry r's schema.
func componentMask(r *Registry, comps []Component) mask.Mask {
	var m mask.Mask
	for _, comp := range comps {
		m.Mark(r.schema.RowIndexFor(comp))
	}
	return m
}

// Evaluate implements the QueryNode interface for composite nodes
func (n *compositeNode) Evaluate(arch *archetype) bool {
	nodeMask := componentMask(n.registry, n.components)
	archeMask := arch.table.(mask.Maskable).Mask()

	switch n.op {
	case OpAnd:
		if !archeMask.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(arch) {
				return false
			}
		}
		return true
	case OpOr:
		if archeMask.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(arch) {
				return true
			}
		}
		return false
	case OpNot:
		if len(n.children) == 0 {
			return archeMask.ContainsNone(nodeMask)
		}
		if len(n.components) > 0 && !archeMask.ContainsNone(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if child.Evaluate(arch) {
				return false
			}
		}
		return true
	}
	return false
}

// Evaluate implements the QueryNode interface for leaf nodes
func (n *leafNode) Evaluate(arch *archetype) bool {
	nodeMask := componentMask(n.registry, n.components)
	archeMask := arch.table.(mask.Maskable).Mask()
	return archeMask.ContainsAll(nodeMask)
}

// And creates a new AND operation node with the provided items
func (q *query) And(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(q.registry, OpAnd, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

// Or creates a new OR operation node with the provided items
func (q *query) Or(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(q.registry, OpOr, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

// Not creates a new NOT operation node with the provided items
func (q *query) Not(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(q.registry, OpNot, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

// validateQueryItems checks if all items are of valid types for queries
func (q *query) validateQueryItems(items ...interface{}) error {
	for _, item := range items {
		switch item.(type) {
		case Component, []Component, QueryNode, Query:
			continue
		default:
			return fmt.Errorf("invalid query item type: %T. Only Component, []Component, or QueryNode are allowed", item)
		}
	}
	return nil
}

// processItems converts the input items into components and query nodes
func (q *query) processItems(items ...interface{}) ([]Component, []QueryNode) {
	if err := q.validateQueryItems(items...); err != nil {
		panic(bark.AddTrace(err))
	}
	components := make([]Component, 0)
	children := make([]QueryNode, 0)
	for _, item := range items {
		switch v := item.(type) {
		case Component:
			components = append(components, v)
		case []Component:
			components = append(components, v...)
		case QueryNode:
			children = append(children, v)
		}
	}
	return components, children
}

// Evaluate implements the QueryNode interface for the query type
func (q *query) Evaluate(arch *archetype) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(arch)
}

// idsOf returns the ComponentIds for comps as assigned by r's schema, in the
// order of comps (unsorted).
func idsOf(r *Registry, comps []Component) []ComponentId {
	ids := make([]ComponentId, len(comps))
	for i, c := range comps {
		ids[i] = r.componentID(c)
	}
	return ids
}

// Query1 through Query4 are typed tuple queries: each pairs a Cursor fixed to
// a known set of component ids with the Accessor list a system declares for
// that access, so the scheduler's conflict graph can see exactly what the
// query touches without inspecting the system body. Go generics don't
// support variadic type parameters, so each arity gets its own struct.
type Query1[A any] struct {
	*Cursor
	accessors []Accessor
}

// NewQuery1 builds a Query1 over component a, filtered by filter if non-nil,
// declaring accessors to the scheduler.
func NewQuery1[A any](r *Registry, a AccessibleComponent[A], filter QueryNode, accessors ...Accessor) *Query1[A] {
	return &Query1[A]{
		Cursor:    newCursor(r, []ComponentId{a.id}, filter),
		accessors: accessors,
	}
}

// Accessors reports the accesses this query declares, for scheduler use.
func (q *Query1[A]) Accessors() []Accessor { return q.accessors }

type Query2[A, B any] struct {
	*Cursor
	accessors []Accessor
}

func NewQuery2[A, B any](r *Registry, a AccessibleComponent[A], b AccessibleComponent[B], filter QueryNode, accessors ...Accessor) *Query2[A, B] {
	return &Query2[A, B]{
		Cursor:    newCursor(r, []ComponentId{a.id, b.id}, filter),
		accessors: accessors,
	}
}

func (q *Query2[A, B]) Accessors() []Accessor { return q.accessors }

type Query3[A, B, C any] struct {
	*Cursor
	accessors []Accessor
}

func NewQuery3[A, B, C any](r *Registry, a AccessibleComponent[A], b AccessibleComponent[B], c AccessibleComponent[C], filter QueryNode, accessors ...Accessor) *Query3[A, B, C] {
	return &Query3[A, B, C]{
		Cursor:    newCursor(r, []ComponentId{a.id, b.id, c.id}, filter),
		accessors: accessors,
	}
}

func (q *Query3[A, B, C]) Accessors() []Accessor { return q.accessors }

type Query4[A, B, C, D any] struct {
	*Cursor
	accessors []Accessor
}

func NewQuery4[A, B, C, D any](r *Registry, a AccessibleComponent[A], b AccessibleComponent[B], c AccessibleComponent[C], d AccessibleComponent[D], filter QueryNode, accessors ...Accessor) *Query4[A, B, C, D] {
	return &Query4[A, B, C, D]{
		Cursor:    newCursor(r, []ComponentId{a.id, b.id, c.id, d.id}, filter),
		accessors: accessors,
	}
}

func (q *Query4[A, B, C, D]) Accessors() []Accessor { return q.accessors }

