package expectation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/0xflotus/Detox/pkg/core"
	"github.com/0xflotus/Detox/pkg/hierarchy"
	"github.com/0xflotus/Detox/pkg/predicate"
)

func build(t *testing.T, m map[string]interface{}) Expectation {
	t.Helper()
	exp, err := FromMap(m, predicate.Options{})
	if err != nil {
		t.Fatalf("FromMap() error = %v", err)
	}
	return exp
}

func byID(id string) map[string]interface{} {
	return map[string]interface{}{"type": "id", "value": id}
}

func tree(t *testing.T, doc string) *hierarchy.Tree {
	t.Helper()
	tr, err := hierarchy.ParseJSON(doc, nil)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	return tr
}

const screenJSON = `{
  "type": "Group",
  "id": "screen",
  "children": [
    {"type": "Button", "id": "submit", "text": "Submit", "label": "Submit form"},
    {"type": "TextField", "id": "email", "placeholder": "Email"},
    {"type": "Text", "id": "hidden", "text": "secret", "visible": false},
    {"type": "Text", "id": "dup"},
    {"type": "Text", "id": "dup"},
    {"type": "Slider", "id": "volume", "position": 0.55}
  ]
}`

func TestClampTolerance(t *testing.T) {
	zero := 0.0
	e := NewHasNumericPosition(Base{}, 0.5, &zero)
	if *e.Tolerance <= 0 {
		t.Errorf("tolerance 0 clamped to %v, want > 0", *e.Tolerance)
	}

	big := 1.5
	e = NewHasNumericPosition(Base{}, 0.5, &big)
	if *e.Tolerance >= 1 {
		t.Errorf("tolerance 1.5 clamped to %v, want < 1", *e.Tolerance)
	}

	mid := 0.25
	if e = NewHasNumericPosition(Base{}, 0.5, &mid); *e.Tolerance != 0.25 {
		t.Errorf("tolerance 0.25 changed to %v", *e.Tolerance)
	}

	if e = NewHasNumericPosition(Base{}, 0.5, nil); e.Tolerance != nil {
		t.Error("absent tolerance should stay absent")
	}
}

func TestEvaluate(t *testing.T) {
	tr := tree(t, screenJSON)

	tests := []struct {
		name string
		m    map[string]interface{}
		pass bool
	}{
		{"visible", map[string]interface{}{"expectation": "toBeVisible", "predicate": byID("submit")}, true},
		{"hidden not visible", map[string]interface{}{"expectation": "toBeVisible", "predicate": byID("hidden")}, false},
		{"not visible hidden", map[string]interface{}{"expectation": "toBeVisible", "modifiers": []interface{}{"not"}, "predicate": byID("hidden")}, true},
		{"not visible absent", map[string]interface{}{"expectation": "toBeVisible", "modifiers": []interface{}{"not"}, "predicate": byID("gone")}, true},
		{"visible absent", map[string]interface{}{"expectation": "toBeVisible", "predicate": byID("gone")}, false},
		{"visible ambiguous", map[string]interface{}{"expectation": "toBeVisible", "predicate": byID("dup")}, false},
		{"not visible ambiguous", map[string]interface{}{"expectation": "toBeVisible", "modifiers": []interface{}{"not"}, "predicate": byID("dup")}, false},
		{"exists", map[string]interface{}{"expectation": "toExist", "predicate": byID("hidden")}, true},
		{"exists many", map[string]interface{}{"expectation": "toExist", "predicate": byID("dup")}, true},
		{"exists absent", map[string]interface{}{"expectation": "toExist", "predicate": byID("gone")}, false},
		{"not exists absent", map[string]interface{}{"expectation": "toExist", "modifiers": []interface{}{"not"}, "predicate": byID("gone")}, true},
		{"text", map[string]interface{}{"expectation": "toHaveText", "params": []interface{}{"Submit"}, "predicate": byID("submit")}, true},
		{"text mismatch", map[string]interface{}{"expectation": "toHaveText", "params": []interface{}{"submit"}, "predicate": byID("submit")}, false},
		{"not text", map[string]interface{}{"expectation": "toHaveText", "modifiers": []interface{}{"not"}, "params": []interface{}{"Cancel"}, "predicate": byID("submit")}, true},
		{"label", map[string]interface{}{"expectation": "toHaveLabel", "params": []interface{}{"Submit form"}, "predicate": byID("submit")}, true},
		{"id", map[string]interface{}{"expectation": "toHaveId", "params": []interface{}{"email"}, "predicate": map[string]interface{}{"type": "type", "value": "TextField"}}, true},
		{"placeholder", map[string]interface{}{"expectation": "toHavePlaceholder", "params": []interface{}{"Email"}, "predicate": byID("email")}, true},
		{"value absent", map[string]interface{}{"expectation": "toHaveValue", "params": []interface{}{""}, "predicate": byID("email")}, false},
		{"slider within tolerance", map[string]interface{}{"expectation": "toHaveSliderPosition", "params": []interface{}{0.5, 0.1}, "predicate": byID("volume")}, true},
		{"slider exact default tolerance", map[string]interface{}{"expectation": "toHaveSliderPosition", "params": []interface{}{0.55}, "predicate": byID("volume")}, true},
		{"slider outside default tolerance", map[string]interface{}{"expectation": "toHaveSliderPosition", "params": []interface{}{0.5}, "predicate": byID("volume")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Evaluate(build(t, tt.m), tr)
			if tt.pass && err != nil {
				t.Errorf("Evaluate() error = %v, want pass", err)
			}
			if !tt.pass {
				if err == nil {
					t.Fatal("Evaluate() passed, want failure")
				}
				if core.IsFatal(err) {
					t.Errorf("failure should be transient, got %v", err)
				}
			}
		})
	}
}

func TestEvaluate_SliderScenario(t *testing.T) {
	m := func(doc string) (Expectation, *hierarchy.Tree) {
		return build(t, map[string]interface{}{
			"expectation": "toHaveSliderPosition",
			"params":      []interface{}{0.5, 0.1},
			"predicate":   byID("s"),
		}), tree(t, doc)
	}

	exp, tr := m(`{"type": "Slider", "id": "s", "position": 0.55}`)
	if err := Evaluate(exp, tr); err != nil {
		t.Errorf("position 0.55: error = %v, want pass", err)
	}

	exp, tr = m(`{"type": "Slider", "id": "s", "position": 0.7}`)
	err := Evaluate(exp, tr)
	if err == nil {
		t.Fatal("position 0.7 passed, want failure")
	}
	if !strings.Contains(err.Error(), "(sliderPosition (~0.1)== “0.5”)") {
		t.Errorf("error = %q, want slider description", err.Error())
	}
	if core.TargetOf(err) == nil {
		t.Error("failure should carry the resolved slider")
	}
}

func TestEvaluate_EmptyText(t *testing.T) {
	tr := tree(t, `{"type": "TextField", "id": "f", "text": ""}`)

	empty := build(t, map[string]interface{}{
		"expectation": "toHaveText",
		"params":      []interface{}{""},
		"predicate":   byID("f"),
	})
	if err := Evaluate(empty, tr); err != nil {
		t.Errorf("toHaveText(\"\") on an empty field: %v", err)
	}

	filled := build(t, map[string]interface{}{
		"expectation": "toHaveText",
		"params":      []interface{}{"x"},
		"predicate":   byID("f"),
	})
	if err := Evaluate(filled, tr); err == nil {
		t.Error("toHaveText(\"x\") on an empty field passed")
	}
}

func TestEvaluate_SliderWithoutPosition(t *testing.T) {
	tr := tree(t, `{"type": "Slider", "id": "s"}`)
	for _, mods := range [][]interface{}{nil, {"not"}} {
		m := map[string]interface{}{
			"expectation": "toHaveSliderPosition",
			"params":      []interface{}{0.0},
			"predicate":   byID("s"),
		}
		if mods != nil {
			m["modifiers"] = mods
		}
		err := Evaluate(build(t, m), tr)
		if !errors.Is(err, core.ErrPositionUnavailable) {
			t.Fatalf("modifiers %v: error = %v, want position unavailable", mods, err)
		}
		if core.IsFatal(err) {
			t.Errorf("modifiers %v: missing position should be transient", mods)
		}
		if core.TargetOf(err) == nil {
			t.Errorf("modifiers %v: failure should carry the slider", mods)
		}
	}
}

func TestEvaluate_TypeMismatch(t *testing.T) {
	tr := tree(t, screenJSON)
	exp := build(t, map[string]interface{}{
		"expectation": "toHaveSliderPosition",
		"params":      []interface{}{0.5},
		"predicate":   byID("submit"),
	})

	err := Evaluate(exp, tr)
	if !errors.Is(err, core.ErrTypeMismatch) {
		t.Fatalf("error = %v, want type mismatch", err)
	}
	if !core.IsFatal(err) {
		t.Error("type mismatch should be fatal")
	}
	if !strings.Contains(err.Error(), "TOHAVESLIDERPOSITION") {
		t.Errorf("error = %q, want expectation description", err.Error())
	}
}

func TestEvaluate_FailureCarriesDescription(t *testing.T) {
	tr := tree(t, screenJSON)
	exp := build(t, map[string]interface{}{
		"expectation": "toHaveText",
		"params":      []interface{}{"Cancel"},
		"predicate":   byID("submit"),
	})

	err := Evaluate(exp, tr)
	if !errors.Is(err, core.ErrExpectationFailed) {
		t.Fatalf("error = %v, want expectation failed", err)
	}
	want := "Failed expectation: " + exp.Describe()
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if core.TargetOf(err) == nil {
		t.Error("failure should carry the resolved element")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]interface{}
		want string
	}{
		{
			"visible",
			map[string]interface{}{"expectation": "toBeVisible", "predicate": byID("ok")},
			`TOBEVISIBLE WITH MATCHER(accessibilityIdentifier == "ok")`,
		},
		{
			"not exists with timeout",
			map[string]interface{}{"expectation": "toExist", "modifiers": []interface{}{"not"}, "timeout": 1500, "predicate": byID("ok")},
			`NOT TOEXIST WITH MATCHER(accessibilityIdentifier == "ok") TIMEOUT(1.5s)`,
		},
		{
			"text",
			map[string]interface{}{"expectation": "toHaveText", "params": []interface{}{"Hi"}, "predicate": byID("ok")},
			`TOHAVETEXT(text == “Hi”) WITH MATCHER(accessibilityIdentifier == "ok")`,
		},
		{
			"id at index",
			map[string]interface{}{"expectation": "toHaveId", "params": []interface{}{"x"}, "predicate": byID("ok"), "atIndex": 1},
			`TOHAVEID(accessibilityIdentifier == “x”) WITH MATCHER(accessibilityIdentifier == "ok") AT INDEX(1)`,
		},
		{
			"slider",
			map[string]interface{}{"expectation": "toHaveSliderPosition", "params": []interface{}{0.5, 0.1}, "predicate": byID("s"), "timeout": 2000},
			`TOHAVESLIDERPOSITION(sliderPosition (~0.1)== “0.5”) WITH MATCHER(accessibilityIdentifier == "s") TIMEOUT(2s)`,
		},
		{
			"slider integral without tolerance",
			map[string]interface{}{"expectation": "toHaveSliderPosition", "params": []interface{}{1}, "predicate": byID("s")},
			`TOHAVESLIDERPOSITION(sliderPosition == “1.0”) WITH MATCHER(accessibilityIdentifier == "s")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := build(t, tt.m).Describe(); got != tt.want {
				t.Errorf("Describe() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestFromMap_Errors(t *testing.T) {
	pred := byID("x")
	tests := []struct {
		name string
		m    map[string]interface{}
		want *core.ExecutionError
	}{
		{"nil", nil, core.ErrMissingRequired},
		{"no kind", map[string]interface{}{"predicate": pred}, core.ErrMissingRequired},
		{"unknown kind", map[string]interface{}{"expectation": "toBeBlue", "predicate": pred}, core.ErrUnknownKind},
		{"unknown modifier", map[string]interface{}{"expectation": "toExist", "modifiers": []interface{}{"never"}, "predicate": pred}, core.ErrUnknownModifier},
		{"no predicate", map[string]interface{}{"expectation": "toExist"}, core.ErrMissingRequired},
		{"bad predicate", map[string]interface{}{"expectation": "toExist", "predicate": map[string]interface{}{"type": "xpath"}}, core.ErrUnknownKind},
		{"negative timeout", map[string]interface{}{"expectation": "toExist", "timeout": -1, "predicate": pred}, core.ErrInvalidField},
		{"timeout not number", map[string]interface{}{"expectation": "toExist", "timeout": "1s", "predicate": pred}, core.ErrInvalidField},
		{"text without value", map[string]interface{}{"expectation": "toHaveText", "predicate": pred}, core.ErrMissingRequired},
		{"params not list", map[string]interface{}{"expectation": "toHaveText", "params": "a", "predicate": pred}, core.ErrInvalidField},
		{"slider out of range", map[string]interface{}{"expectation": "toHaveSliderPosition", "params": []interface{}{1.5}, "predicate": pred}, core.ErrInvalidField},
		{"slider not number", map[string]interface{}{"expectation": "toHaveSliderPosition", "params": []interface{}{"half"}, "predicate": pred}, core.ErrInvalidField},
		{"slider bad tolerance", map[string]interface{}{"expectation": "toHaveSliderPosition", "params": []interface{}{0.5, "tight"}, "predicate": pred}, core.ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(tt.m, predicate.Options{})
			if !errors.Is(err, tt.want) {
				t.Errorf("FromMap() error = %v, want %s", err, tt.want.Code)
			}
		})
	}
}

func TestFromMap_Timeout(t *testing.T) {
	tests := []struct {
		raw  interface{}
		want time.Duration
	}{
		{nil, 0},
		{0, 0},
		{int64(250), 250 * time.Millisecond},
		{float64(2000), 2 * time.Second},
		{0.5, 500 * time.Microsecond},
	}

	for _, tt := range tests {
		m := map[string]interface{}{"expectation": "toExist", "predicate": byID("x")}
		if tt.raw != nil {
			m["timeout"] = tt.raw
		}
		if got := build(t, m).Common().Timeout; got != tt.want {
			t.Errorf("timeout %v = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0.5, "0.5"},
		{1, "1.0"},
		{0, "0.0"},
		{0.1, "0.1"},
		{1e-20, "1e-20"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.v); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
