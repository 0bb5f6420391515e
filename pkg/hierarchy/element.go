// Package hierarchy implements core.Tree over captured page sources: iOS WDA
// XML, Android UIAutomator XML and the JSON hierarchy format.
package hierarchy

import (
	"github.com/0xflotus/Detox/pkg/core"
)

// Attribute keys stored on elements. They match the keys predicates and
// expectations ask the host for.
const (
	AttrIdentifier  = "accessibilityIdentifier"
	AttrLabel       = "accessibilityLabel"
	AttrValue       = "accessibilityValue"
	AttrText        = "text"
	AttrPlaceholder = "placeholder"
)

// Element is one node of a parsed hierarchy.
type Element struct {
	Type       string
	Attributes map[string]string
	Bounds     core.Bounds
	HasBounds  bool
	Displayed  bool
	Enabled    bool
	Position   *float64 // normalized scalar control position, if reported
	Children   []*Element
	Parent     *Element
	Depth      int
}

func newElement(typeName string) *Element {
	return &Element{
		Type:       typeName,
		Attributes: make(map[string]string),
		Displayed:  true,
		Enabled:    true,
	}
}

// set stores an attribute the source reported, including empty values.
func (e *Element) set(key, value string) {
	e.Attributes[key] = value
}

// Tree is an immutable snapshot implementing core.Tree. Node handles are *Element.
type Tree struct {
	Platform string
	roots    []*Element
	types    *TypeTable
	present  map[string]bool
}

var _ core.Tree = (*Tree)(nil)

// NewTree links parents and depths below roots and returns the tree.
func NewTree(platform string, roots []*Element, types *TypeTable) *Tree {
	if types == nil {
		types = GenericTypes()
	}
	t := &Tree{
		Platform: platform,
		roots:    roots,
		types:    types,
		present:  make(map[string]bool),
	}
	for _, root := range roots {
		root.Parent = nil
		t.link(root, 0)
	}
	return t
}

func (t *Tree) link(e *Element, depth int) {
	e.Depth = depth
	t.present[e.Type] = true
	for _, child := range e.Children {
		child.Parent = e
		t.link(child, depth+1)
	}
}

// Elements returns every element in pre-order.
func (t *Tree) Elements() []*Element {
	var out []*Element
	var walk func(e *Element)
	walk = func(e *Element) {
		out = append(out, e)
		for _, c := range e.Children {
			walk(c)
		}
	}
	for _, r := range t.roots {
		walk(r)
	}
	return out
}

func asElement(n core.Node) *Element {
	e, _ := n.(*Element)
	return e
}

// Roots returns the top-level elements.
func (t *Tree) Roots() []core.Node {
	nodes := make([]core.Node, len(t.roots))
	for i, r := range t.roots {
		nodes[i] = r
	}
	return nodes
}

// Attribute returns an attribute of n.
func (t *Tree) Attribute(n core.Node, key string) (string, bool) {
	e := asElement(n)
	if e == nil {
		return "", false
	}
	v, ok := e.Attributes[key]
	return v, ok
}

// TypeName returns the element type of n.
func (t *Tree) TypeName(n core.Node) string {
	if e := asElement(n); e != nil {
		return e.Type
	}
	return ""
}

// Parent returns the parent of n.
func (t *Tree) Parent(n core.Node) (core.Node, bool) {
	e := asElement(n)
	if e == nil || e.Parent == nil {
		return nil, false
	}
	return e.Parent, true
}

// Children returns the children of n.
func (t *Tree) Children(n core.Node) []core.Node {
	e := asElement(n)
	if e == nil {
		return nil
	}
	nodes := make([]core.Node, len(e.Children))
	for i, c := range e.Children {
		nodes[i] = c
	}
	return nodes
}

// ResolvesType reports whether the type table or the tree knows typeName.
func (t *Tree) ResolvesType(typeName string) bool {
	return t.types.Knows(typeName) || t.present[typeName]
}

// IsKindOf reports whether n's type is typeName or inherits from it.
func (t *Tree) IsKindOf(n core.Node, typeName string) bool {
	e := asElement(n)
	if e == nil {
		return false
	}
	return t.types.IsKindOf(e.Type, typeName)
}

// IsVisible reports whether n and all its ancestors are displayed and n has
// a non-empty frame when bounds are known.
func (t *Tree) IsVisible(n core.Node) bool {
	e := asElement(n)
	if e == nil {
		return false
	}
	if e.HasBounds && e.Bounds.IsEmpty() {
		return false
	}
	for cur := e; cur != nil; cur = cur.Parent {
		if !cur.Displayed {
			return false
		}
	}
	return true
}

// ScalarPosition returns the normalized position of a scalar control.
func (t *Tree) ScalarPosition(n core.Node) (float64, error) {
	e := asElement(n)
	if e == nil || !t.types.IsScalar(e.Type) {
		return 0, core.ErrTypeMismatch.
			WithMessagef("Element of type “%s” is not a scalar control", t.TypeName(n))
	}
	if e.Position == nil {
		return 0, core.ErrPositionUnavailable.
			WithMessagef("Element of type “%s” reports no position", e.Type)
	}
	return *e.Position, nil
}
