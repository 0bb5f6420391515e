package predicate

import (
	"fmt"
	"strconv"

	"github.com/0xflotus/Detox/pkg/core"
)

// Serialized field names.
const (
	FieldKind       = "type"
	FieldKindAlias  = "kind"
	FieldValue      = "value"
	FieldPredicate  = "predicate"
	FieldPredicates = "predicates"
	FieldModifiers  = "modifiers"
)

// Options carries host capabilities that change how predicates are built.
type Options struct {
	// CompoundTextNodesPresent reports that the host realizes some labels as a
	// text node nested inside the labeled container.
	CompoundTextNodesPresent bool

	// CompoundTextNodeType is the type name of that nested text node.
	CompoundTextNodeType string
}

// FromMap builds a predicate from its serialized form.
func FromMap(m map[string]interface{}, opts Options) (Predicate, error) {
	if opts.CompoundTextNodesPresent && opts.CompoundTextNodeType == "" {
		return nil, core.ErrInvalidField.WithMessage("compound text nodes enabled without a node type")
	}
	return fromMap(m, opts)
}

func fromMap(m map[string]interface{}, opts Options) (Predicate, error) {
	if m == nil {
		return nil, core.ErrMissingRequired.WithMessage("predicate is missing")
	}

	kind, err := kindOf(m)
	if err != nil {
		return nil, err
	}

	mods, err := ParseModifiers(m[FieldModifiers])
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindType:
		name, err := requiredString(m, FieldValue, kind)
		if err != nil {
			return nil, err
		}
		return NewTypeOf(name, mods), nil

	case KindLabel:
		value, err := requiredScalar(m, FieldValue, kind)
		if err != nil {
			return nil, err
		}
		label := NewAttribute(AttributeLabel, value, mods)
		if !opts.CompoundTextNodesPresent {
			return label, nil
		}
		return compoundTextLabel(label, opts.CompoundTextNodeType), nil

	case KindID, KindText, KindValue:
		value, err := requiredScalar(m, FieldValue, kind)
		if err != nil {
			return nil, err
		}
		return NewAttribute(AttributeKind(kind), value, mods), nil

	case KindAncestor, KindDescendant:
		nested, ok := m[FieldPredicate].(map[string]interface{})
		if !ok {
			return nil, core.ErrMissingRequired.WithMessagef("%s predicate is missing %q", kind, FieldPredicate)
		}
		inner, err := fromMap(nested, opts)
		if err != nil {
			return nil, err
		}
		if kind == KindAncestor {
			return NewAncestor(inner, mods), nil
		}
		return NewDescendant(inner, mods), nil

	case KindAnd:
		list, ok := m[FieldPredicates].([]interface{})
		if !ok {
			return nil, core.ErrMissingRequired.WithMessagef("and predicate is missing %q", FieldPredicates)
		}
		children := make([]Predicate, 0, len(list))
		for i, item := range list {
			nested, ok := item.(map[string]interface{})
			if !ok {
				return nil, core.ErrInvalidField.WithMessagef("and predicate child %d is not an object", i)
			}
			child, err := fromMap(nested, opts)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return NewAnd(children, mods)

	default:
		return nil, core.ErrUnknownKind.WithMessagef("unknown predicate type %q", kind)
	}
}

// compoundTextLabel excludes containers whose label is realized by a nested
// text node of the same label, so the label matches only once.
func compoundTextLabel(label *Attribute, textNodeType string) Predicate {
	return &And{Children: []Predicate{
		label,
		NewDescendant(&And{Children: []Predicate{
			NewTypeOf(textNodeType, 0),
			NewAttribute(AttributeLabel, label.Value, label.Mods),
		}}, Not),
	}}
}

func kindOf(m map[string]interface{}) (string, error) {
	raw, ok := m[FieldKind]
	if !ok {
		raw, ok = m[FieldKindAlias]
	}
	if !ok {
		return "", core.ErrMissingRequired.WithMessagef("predicate is missing %q", FieldKind)
	}
	kind, ok := raw.(string)
	if !ok {
		return "", core.ErrInvalidField.WithMessagef("predicate %q must be a string, got %T", FieldKind, raw)
	}
	return kind, nil
}

func requiredString(m map[string]interface{}, field, kind string) (string, error) {
	raw, ok := m[field]
	if !ok || raw == nil {
		return "", core.ErrMissingRequired.WithMessagef("%s predicate is missing %q", kind, field)
	}
	s, ok := raw.(string)
	if !ok {
		return "", core.ErrInvalidField.WithMessagef("%s predicate %q must be a string, got %T", kind, field, raw)
	}
	return s, nil
}

func requiredScalar(m map[string]interface{}, field, kind string) (string, error) {
	raw, ok := m[field]
	if !ok || raw == nil {
		return "", core.ErrMissingRequired.WithMessagef("%s predicate is missing %q", kind, field)
	}
	s, err := ScalarString(raw)
	if err != nil {
		return "", core.ErrInvalidField.WithMessagef("%s predicate %q: %v", kind, field, err)
	}
	return s, nil
}

// ScalarString renders a serialized scalar the way hosts render attribute values.
func ScalarString(v interface{}) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
