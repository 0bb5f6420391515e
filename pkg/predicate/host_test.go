package predicate

import "github.com/0xflotus/Detox/pkg/core"

// node is a minimal element for testing.
type node struct {
	typeName string
	attrs    map[string]string
	parent   *node
	children []*node
}

func newNode(typeName string, attrs map[string]string, children ...*node) *node {
	n := &node{typeName: typeName, attrs: attrs, children: children}
	for _, c := range children {
		c.parent = n
	}
	return n
}

// fakeHost implements core.Host and counts attribute lookups.
type fakeHost struct {
	parents        map[string]string
	attributeCalls int
	typeCalls      int
}

func newFakeHost() *fakeHost {
	return &fakeHost{parents: map[string]string{
		"Button": "View",
		"Label":  "View",
		"Cell":   "View",
	}}
}

func (h *fakeHost) Attribute(n core.Node, key string) (string, bool) {
	h.attributeCalls++
	v, ok := n.(*node).attrs[key]
	return v, ok
}

func (h *fakeHost) TypeName(n core.Node) string {
	return n.(*node).typeName
}

func (h *fakeHost) Parent(n core.Node) (core.Node, bool) {
	p := n.(*node).parent
	if p == nil {
		return nil, false
	}
	return p, true
}

func (h *fakeHost) Children(n core.Node) []core.Node {
	var out []core.Node
	for _, c := range n.(*node).children {
		out = append(out, c)
	}
	return out
}

func (h *fakeHost) ResolvesType(name string) bool {
	if name == "View" {
		return true
	}
	_, ok := h.parents[name]
	return ok
}

func (h *fakeHost) IsKindOf(n core.Node, name string) bool {
	h.typeCalls++
	for cur := n.(*node).typeName; cur != ""; cur = h.parents[cur] {
		if cur == name {
			return true
		}
	}
	return false
}
