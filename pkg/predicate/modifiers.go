package predicate

import (
	"fmt"

	"github.com/0xflotus/Detox/pkg/core"
)

// Modifiers is the set of unary transforms applied to a result.
type Modifiers uint8

// Not negates the raw result.
const Not Modifiers = 1 << iota

// ModifierNot is the serialized name of Not.
const ModifierNot = "not"

// Has reports whether all of x are set in m.
func (m Modifiers) Has(x Modifiers) bool {
	return m&x == x && x != 0
}

// Toggle flips x in m.
func (m Modifiers) Toggle(x Modifiers) Modifiers {
	return m ^ x
}

// Apply XORs the raw result with Not.
func (m Modifiers) Apply(raw bool) bool {
	return raw != m.Has(Not)
}

// Names returns the serialized names of the modifiers in m.
func (m Modifiers) Names() []string {
	var names []string
	if m.Has(Not) {
		names = append(names, ModifierNot)
	}
	return names
}

// ParseModifiers converts serialized modifier names. Unknown names are a
// construction error. Accepts []string or []interface{} holding strings.
func ParseModifiers(raw interface{}) (Modifiers, error) {
	if raw == nil {
		return 0, nil
	}

	var names []string
	switch v := raw.(type) {
	case []string:
		names = v
	case []interface{}:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return 0, core.ErrInvalidField.WithMessagef("modifier %v is not a string", item)
			}
			names = append(names, s)
		}
	default:
		return 0, core.ErrInvalidField.WithMessage(fmt.Sprintf("modifiers must be a list, got %T", raw))
	}

	var m Modifiers
	for _, name := range names {
		switch name {
		case ModifierNot:
			m |= Not
		default:
			return 0, core.ErrUnknownModifier.WithMessagef("unknown modifier %q", name)
		}
	}
	return m, nil
}

func notPrefix(m Modifiers) string {
	if m.Has(Not) {
		return "NOT "
	}
	return ""
}
