package core

import "time"

// Node is an opaque handle to an element owned by the host UI runtime.
// Handles are compared with == so implementations should use pointers.
type Node interface{}

// Host exposes the attribute, type and hierarchy accessors used by predicates.
// All methods are synchronous and only safe on the goroutine that owns the tree.
type Host interface {
	// Attribute returns the value of key on n, and whether it is present.
	Attribute(n Node, key string) (string, bool)

	// TypeName returns the runtime type name of n.
	TypeName(n Node) string

	// Parent returns the parent of n, or false for a root.
	Parent(n Node) (Node, bool)

	// Children returns the direct children of n in order.
	Children(n Node) []Node

	// ResolvesType reports whether the host knows the named type at all.
	ResolvesType(typeName string) bool

	// IsKindOf reports whether n is of the named type or a subtype of it.
	IsKindOf(n Node, typeName string) bool
}

// Tree is a snapshot of the UI hierarchy for one attempt.
type Tree interface {
	Host

	// Roots returns the top-level elements in order.
	Roots() []Node

	// IsVisible returns the host's computed visibility for n.
	IsVisible(n Node) bool

	// ScalarPosition returns the normalized [0,1] position of a scalar control
	// (slider). It fails with ErrTypeMismatch when n is not a scalar control and
	// with ErrPositionUnavailable when the control reports no position.
	ScalarPosition(n Node) (float64, error)
}

// TreeProvider fetches the current tree. Called once per attempt.
type TreeProvider interface {
	Tree() (Tree, error)
}

// TreeProviderFunc adapts a function to TreeProvider.
type TreeProviderFunc func() (Tree, error)

// Tree calls f.
func (f TreeProviderFunc) Tree() (Tree, error) {
	return f()
}

// StaticTree returns a provider that always yields t.
func StaticTree(t Tree) TreeProvider {
	return TreeProviderFunc(func() (Tree, error) { return t, nil })
}

// Clock returns the current time. Implementations backed by time.Now carry a
// monotonic reading, so Sub between two values is immune to wall-clock changes.
type Clock interface {
	Now() time.Time
}

// Scheduler defers work onto the goroutine that owns the tree.
// After must not block and must not run fn synchronously.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// Bounds represents element position and size
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsEmpty reports whether the bounds have no area.
func (b Bounds) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}
