package expectation

import (
	"math"
	"time"

	"github.com/0xflotus/Detox/pkg/core"
	"github.com/0xflotus/Detox/pkg/locator"
	"github.com/0xflotus/Detox/pkg/predicate"
)

// Serialized field names.
const (
	FieldKind      = "expectation"
	FieldKindAlias = "kind"
	FieldParams    = "params"
	FieldModifiers = "modifiers"
	FieldTimeout   = "timeout"
)

// FromMap builds an expectation from its serialized form. The element is read
// from the same map ("predicate" and optional "atIndex").
func FromMap(m map[string]interface{}, opts predicate.Options) (Expectation, error) {
	if m == nil {
		return nil, core.ErrMissingRequired.WithMessage("expectation is missing")
	}

	kind, err := kindOf(m)
	if err != nil {
		return nil, err
	}
	if !knownKind(kind) {
		return nil, core.ErrUnknownKind.WithMessagef("unknown expectation %q", kind)
	}

	mods, err := predicate.ParseModifiers(m[FieldModifiers])
	if err != nil {
		return nil, err
	}

	timeout, err := timeoutOf(m)
	if err != nil {
		return nil, err
	}

	element, err := locator.FromMap(m, opts)
	if err != nil {
		return nil, err
	}

	base := Base{Tag: kind, Element: element, Mods: mods, Timeout: timeout}
	params, err := paramsOf(m)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindToBeVisible:
		return &Visible{Base: base}, nil

	case KindToExist:
		return &Exists{Base: base}, nil

	case KindToHaveText, KindToHaveLabel, KindToHaveID, KindToHaveValue, KindToHavePlaceholder:
		if len(params) == 0 || params[0] == nil {
			return nil, core.ErrMissingRequired.WithMessagef("%s requires a value parameter", kind)
		}
		value, err := predicate.ScalarString(params[0])
		if err != nil {
			return nil, core.ErrInvalidField.WithMessagef("%s value: %v", kind, err)
		}
		key, _ := AttributeKey(kind)
		return &HasAttribute{Base: base, Key: key, Value: value}, nil

	case KindToHaveSliderPosition:
		if len(params) == 0 || params[0] == nil {
			return nil, core.ErrMissingRequired.WithMessagef("%s requires a position parameter", kind)
		}
		position, err := number(params[0], kind+" position")
		if err != nil {
			return nil, err
		}
		if position < 0 || position > 1 {
			return nil, core.ErrInvalidField.WithMessagef("%s position must be within [0, 1], got %v", kind, position)
		}
		var tolerance *float64
		if len(params) > 1 && params[1] != nil {
			t, err := number(params[1], kind+" tolerance")
			if err != nil {
				return nil, err
			}
			tolerance = &t
		}
		return NewHasNumericPosition(base, position, tolerance), nil

	default:
		return nil, core.ErrUnknownKind.WithMessagef("unknown expectation %q", kind)
	}
}

func knownKind(kind string) bool {
	switch kind {
	case KindToBeVisible, KindToExist, KindToHaveSliderPosition:
		return true
	}
	_, ok := attributeKeys[kind]
	return ok
}

func kindOf(m map[string]interface{}) (string, error) {
	raw, ok := m[FieldKind]
	if !ok {
		raw, ok = m[FieldKindAlias]
	}
	if !ok {
		return "", core.ErrMissingRequired.WithMessagef("expectation is missing %q", FieldKind)
	}
	kind, ok := raw.(string)
	if !ok {
		return "", core.ErrInvalidField.WithMessagef("expectation %q must be a string, got %T", FieldKind, raw)
	}
	return kind, nil
}

// timeoutOf converts the millisecond timeout. Absent or zero means a single attempt.
func timeoutOf(m map[string]interface{}) (time.Duration, error) {
	raw, ok := m[FieldTimeout]
	if !ok || raw == nil {
		return 0, nil
	}
	ms, err := number(raw, FieldTimeout)
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		return 0, core.ErrInvalidField.WithMessagef("timeout must not be negative, got %v", ms)
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

func paramsOf(m map[string]interface{}) ([]interface{}, error) {
	raw, ok := m[FieldParams]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []interface{}:
		return v, nil
	case []string:
		params := make([]interface{}, len(v))
		for i, s := range v {
			params[i] = s
		}
		return params, nil
	default:
		return nil, core.ErrInvalidField.WithMessagef("params must be a list, got %T", raw)
	}
}

func number(raw interface{}, what string) (float64, error) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case int32:
		v = float64(x)
	default:
		return 0, core.ErrInvalidField.WithMessagef("%s must be a number, got %T", what, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, core.ErrInvalidField.WithMessagef("%s must be finite, got %v", what, v)
	}
	return v, nil
}
