// Package locator resolves a predicate against a freshly fetched UI tree.
package locator

import (
	"fmt"

	"github.com/0xflotus/Detox/pkg/core"
	"github.com/0xflotus/Detox/pkg/predicate"
)

// Serialized field names.
const (
	FieldPredicate = "predicate"
	FieldIndex     = "atIndex"
)

// Locator maps a predicate to the matching nodes of a tree. It holds no tree
// state and is re-resolved on every attempt.
type Locator struct {
	Predicate predicate.Predicate
	Index     *int // selects one match among many
}

// New creates a locator for p.
func New(p predicate.Predicate) Locator {
	return Locator{Predicate: p}
}

// AtIndex returns a copy that selects the i-th match.
func (l Locator) AtIndex(i int) Locator {
	l.Index = &i
	return l
}

// WithAncestor returns a copy that also requires an ancestor matching p.
func (l Locator) WithAncestor(p predicate.Predicate) Locator {
	return l.and(predicate.NewAncestor(p, 0))
}

// WithDescendant returns a copy that also requires a descendant matching p.
func (l Locator) WithDescendant(p predicate.Predicate) Locator {
	return l.and(predicate.NewDescendant(p, 0))
}

func (l Locator) and(p predicate.Predicate) Locator {
	// Two children never collapse, so NewAnd cannot fail here.
	combined, _ := predicate.NewAnd([]predicate.Predicate{l.Predicate, p}, 0)
	l.Predicate = combined
	return l
}

// Describe renders the locator for diagnostics.
func (l Locator) Describe() string {
	desc := "MATCHER(" + l.Predicate.Describe() + ")"
	if l.Index != nil {
		desc += fmt.Sprintf(" AT INDEX(%d)", *l.Index)
	}
	return desc
}

// Resolve returns the matching nodes in pre-order across all roots.
// With an index, the result holds at most that one node.
func (l Locator) Resolve(tree core.Tree) ([]core.Node, error) {
	var matches []core.Node
	var walk func(n core.Node) error
	walk = func(n core.Node) error {
		ok, err := predicate.Evaluate(l.Predicate, n, tree)
		if err != nil {
			return err
		}
		if ok {
			matches = append(matches, n)
		}
		for _, child := range tree.Children(n) {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range tree.Roots() {
		if err := walk(root); err != nil {
			return nil, err
		}
	}

	if l.Index != nil {
		i := *l.Index
		if i < 0 || i >= len(matches) {
			return nil, nil
		}
		return []core.Node{matches[i]}, nil
	}
	return matches, nil
}

// ExistsAtLeastOne reports whether the locator matches anything.
func (l Locator) ExistsAtLeastOne(tree core.Tree) (bool, error) {
	nodes, err := l.Resolve(tree)
	return len(nodes) > 0, err
}

// ExistsExactlyOne reports whether the locator matches exactly one node.
func (l Locator) ExistsExactlyOne(tree core.Tree) (bool, error) {
	nodes, err := l.Resolve(tree)
	return len(nodes) == 1, err
}

// Single resolves to exactly one node. No match and several matches are
// assertion errors; lookup errors from the predicate pass through unchanged.
func (l Locator) Single(tree core.Tree) (core.Node, error) {
	nodes, err := l.Resolve(tree)
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return nil, core.ErrElementNotFound.WithMessagef("No elements found for “%s”", l.Describe())
	case 1:
		return nodes[0], nil
	default:
		return nil, core.ErrMultipleElements.WithMessagef("Multiple elements found for “%s”", l.Describe()).
			WithDetails(map[string]interface{}{"count": len(nodes)})
	}
}

// FromMap builds a locator from the element fields of a serialized
// expectation: the nested predicate and an optional index.
func FromMap(m map[string]interface{}, opts predicate.Options) (Locator, error) {
	nested, ok := m[FieldPredicate].(map[string]interface{})
	if !ok {
		return Locator{}, core.ErrMissingRequired.WithMessagef("element is missing %q", FieldPredicate)
	}
	p, err := predicate.FromMap(nested, opts)
	if err != nil {
		return Locator{}, err
	}

	l := New(p)
	raw, ok := m[FieldIndex]
	if !ok || raw == nil {
		return l, nil
	}
	i, err := toIndex(raw)
	if err != nil {
		return Locator{}, err
	}
	if i < 0 {
		return Locator{}, core.ErrInvalidField.WithMessagef("%s must not be negative, got %d", FieldIndex, i)
	}
	return l.AtIndex(i), nil
}

func toIndex(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, core.ErrInvalidField.WithMessagef("%s must be an integer, got %v", FieldIndex, v)
		}
		return int(v), nil
	default:
		return 0, core.ErrInvalidField.WithMessagef("%s must be an integer, got %T", FieldIndex, raw)
	}
}
