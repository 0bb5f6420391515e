// Package predicate implements the element matching language: an immutable
// predicate tree, its evaluation against a host UI tree, and its canonical
// description.
//
// Variants are closed: every variant implements the unexported evaluate method,
// so a new kind cannot be added without also defining how it is evaluated.
package predicate

import (
	"strconv"
	"strings"

	"github.com/0xflotus/Detox/pkg/core"
)

// Kind tags used in the serialized form.
const (
	KindID         = "id"
	KindLabel      = "label"
	KindText       = "text"
	KindValue      = "value"
	KindType       = "type"
	KindAncestor   = "ancestor"
	KindDescendant = "descendant"
	KindAnd        = "and"
)

// Host attribute keys.
const (
	KeyIdentifier = "accessibilityIdentifier"
	KeyLabel      = "accessibilityLabel"
	KeyText       = "text"
	KeyValue      = "accessibilityValue"
)

// Predicate is a boolean query over a UI tree node.
type Predicate interface {
	// Kind returns the serialized kind tag.
	Kind() string

	// Modifiers returns the modifiers applied to the raw result.
	Modifiers() Modifiers

	// Describe renders the predicate for diagnostics.
	Describe() string

	// evaluate returns the raw result, before modifiers.
	evaluate(host core.Host, n core.Node) (bool, error)

	// withModifiers returns a copy carrying m.
	withModifiers(m Modifiers) Predicate
}

// AttributeKind selects which host attribute an Attribute predicate compares.
type AttributeKind string

// Attribute kinds.
const (
	AttributeID    AttributeKind = KindID
	AttributeLabel AttributeKind = KindLabel
	AttributeText  AttributeKind = KindText
	AttributeValue AttributeKind = KindValue
)

// HostKey returns the host attribute key compared by k.
func (k AttributeKind) HostKey() string {
	switch k {
	case AttributeID:
		return KeyIdentifier
	case AttributeLabel:
		return KeyLabel
	case AttributeText:
		return KeyText
	case AttributeValue:
		return KeyValue
	default:
		return string(k)
	}
}

// Attribute matches when the host attribute is present and exactly equal to Value.
type Attribute struct {
	Attr  AttributeKind
	Value string
	Mods  Modifiers
}

// NewAttribute creates an attribute equality predicate.
func NewAttribute(kind AttributeKind, value string, mods Modifiers) *Attribute {
	return &Attribute{Attr: kind, Value: value, Mods: mods}
}

func (p *Attribute) Kind() string         { return string(p.Attr) }
func (p *Attribute) Modifiers() Modifiers { return p.Mods }

func (p *Attribute) Describe() string {
	return notPrefix(p.Mods) + p.Attr.HostKey() + " == " + strconv.Quote(p.Value)
}

func (p *Attribute) evaluate(host core.Host, n core.Node) (bool, error) {
	actual, ok := host.Attribute(n, p.Attr.HostKey())
	return ok && actual == p.Value, nil
}

func (p *Attribute) withModifiers(m Modifiers) Predicate {
	c := *p
	c.Mods = m
	return &c
}

// TypeOf matches nodes of the named type or one of its subtypes.
type TypeOf struct {
	TypeName string
	Mods     Modifiers
}

// NewTypeOf creates a kind-of predicate.
func NewTypeOf(typeName string, mods Modifiers) *TypeOf {
	return &TypeOf{TypeName: typeName, Mods: mods}
}

func (p *TypeOf) Kind() string         { return KindType }
func (p *TypeOf) Modifiers() Modifiers { return p.Mods }

func (p *TypeOf) Describe() string {
	return notPrefix(p.Mods) + "SELF isKindOfClass: " + p.TypeName
}

func (p *TypeOf) evaluate(host core.Host, n core.Node) (bool, error) {
	if !host.ResolvesType(p.TypeName) {
		return false, core.ErrUnknownType.WithMessagef("Unknown class “%s”", p.TypeName).
			WithDetails(map[string]interface{}{"type": p.TypeName})
	}
	return host.IsKindOf(n, p.TypeName), nil
}

func (p *TypeOf) withModifiers(m Modifiers) Predicate {
	c := *p
	c.Mods = m
	return &c
}

// And is an ordered conjunction that stops at the first false child.
type And struct {
	Children []Predicate
	Mods     Modifiers
}

// NewAnd creates a conjunction. An empty list is rejected; a single child is
// returned as is, with its Not toggled when mods carries Not.
func NewAnd(children []Predicate, mods Modifiers) (Predicate, error) {
	switch len(children) {
	case 0:
		return nil, core.ErrMissingRequired.WithMessage("and predicate requires at least one child")
	case 1:
		child := children[0]
		if mods.Has(Not) {
			return child.withModifiers(child.Modifiers().Toggle(Not)), nil
		}
		return child, nil
	}
	cp := make([]Predicate, len(children))
	copy(cp, children)
	return &And{Children: cp, Mods: mods}, nil
}

func (p *And) Kind() string         { return KindAnd }
func (p *And) Modifiers() Modifiers { return p.Mods }

func (p *And) Describe() string {
	parts := make([]string, len(p.Children))
	for i, c := range p.Children {
		parts[i] = c.Describe()
	}
	joined := strings.Join(parts, " && ")
	if p.Mods.Has(Not) {
		return "NOT (" + joined + ")"
	}
	return joined
}

// evaluate on an empty And is vacuously true; NewAnd never builds one.
func (p *And) evaluate(host core.Host, n core.Node) (bool, error) {
	for _, c := range p.Children {
		ok, err := Evaluate(c, n, host)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (p *And) withModifiers(m Modifiers) Predicate {
	c := *p
	c.Mods = m
	return &c
}

// Ancestor matches when any strict ancestor satisfies Inner.
type Ancestor struct {
	Inner Predicate
	Mods  Modifiers
}

// NewAncestor creates an ancestor predicate.
func NewAncestor(inner Predicate, mods Modifiers) *Ancestor {
	return &Ancestor{Inner: inner, Mods: mods}
}

func (p *Ancestor) Kind() string         { return KindAncestor }
func (p *Ancestor) Modifiers() Modifiers { return p.Mods }

func (p *Ancestor) Describe() string {
	return notPrefix(p.Mods) + "ANCESTOR(" + p.Inner.Describe() + ")"
}

func (p *Ancestor) evaluate(host core.Host, n core.Node) (bool, error) {
	for parent, ok := host.Parent(n); ok; parent, ok = host.Parent(parent) {
		matched, err := Evaluate(p.Inner, parent, host)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func (p *Ancestor) withModifiers(m Modifiers) Predicate {
	c := *p
	c.Mods = m
	return &c
}

// Descendant matches when any strict descendant satisfies Inner.
type Descendant struct {
	Inner Predicate
	Mods  Modifiers
}

// NewDescendant creates a descendant predicate.
func NewDescendant(inner Predicate, mods Modifiers) *Descendant {
	return &Descendant{Inner: inner, Mods: mods}
}

func (p *Descendant) Kind() string         { return KindDescendant }
func (p *Descendant) Modifiers() Modifiers { return p.Mods }

func (p *Descendant) Describe() string {
	return notPrefix(p.Mods) + "DESCENDANT(" + p.Inner.Describe() + ")"
}

func (p *Descendant) evaluate(host core.Host, n core.Node) (bool, error) {
	return anyDescendant(host, n, p.Inner)
}

func (p *Descendant) withModifiers(m Modifiers) Predicate {
	c := *p
	c.Mods = m
	return &c
}

// anyDescendant walks the subtree below n in pre-order.
func anyDescendant(host core.Host, n core.Node, inner Predicate) (bool, error) {
	for _, child := range host.Children(n) {
		matched, err := Evaluate(inner, child, host)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
		if matched, err = anyDescendant(host, child, inner); err != nil || matched {
			return matched, err
		}
	}
	return false, nil
}

// Evaluate reports whether n satisfies p. The only error is a lookup error for
// a type name the host cannot resolve.
func Evaluate(p Predicate, n core.Node, host core.Host) (bool, error) {
	raw, err := p.evaluate(host, n)
	if err != nil {
		return false, err
	}
	return p.Modifiers().Apply(raw), nil
}

// Negate returns p with its Not modifier flipped.
func Negate(p Predicate) Predicate {
	return p.withModifiers(p.Modifiers().Toggle(Not))
}
