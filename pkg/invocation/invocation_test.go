package invocation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/0xflotus/Detox/pkg/core"
	"github.com/0xflotus/Detox/pkg/predicate"
)

const loginYAML = `name: login
platform: ios
env:
  USER: alice
  GREETING: Hello
---
- expectation: toHaveText
  predicate:
    type: id
    value: greeting
  params: ["${GREETING} ${USER}"]
  timeout: 500
- expectation: toExist
  modifiers: [not]
  predicate: {type: id, value: spinner}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestParseYAML_WithHeader(t *testing.T) {
	suite, err := ParseYAML([]byte(loginYAML), "login.yaml", nil)
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if suite.Name != "login" || suite.Platform != "ios" {
		t.Errorf("header = %+v", suite.Header)
	}
	if len(suite.Invocations) != 2 {
		t.Fatalf("Invocations = %d, want 2", len(suite.Invocations))
	}

	params, ok := suite.Invocations[0]["params"].([]interface{})
	if !ok || len(params) != 1 || params[0] != "Hello alice" {
		t.Errorf("params = %#v, want [Hello alice]", suite.Invocations[0]["params"])
	}

	exps, err := suite.Expectations(predicate.Options{})
	if err != nil {
		t.Fatalf("Expectations() error = %v", err)
	}
	want := []string{
		`TOHAVETEXT(text == “Hello alice”) WITH MATCHER(accessibilityIdentifier == "greeting") TIMEOUT(500ms)`,
		`NOT TOEXIST WITH MATCHER(accessibilityIdentifier == "spinner")`,
	}
	for i, exp := range exps {
		if got := exp.Describe(); got != want[i] {
			t.Errorf("expectation %d = %q, want %q", i+1, got, want[i])
		}
	}
}

func TestParseYAML_EnvOverride(t *testing.T) {
	suite, err := ParseYAML([]byte(loginYAML), "login.yaml", map[string]string{"USER": "bob"})
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	params := suite.Invocations[0]["params"].([]interface{})
	if params[0] != "Hello bob" {
		t.Errorf("params[0] = %v, want Hello bob", params[0])
	}
	if suite.Env["GREETING"] != "Hello" || suite.Env["USER"] != "bob" {
		t.Errorf("Env = %v", suite.Env)
	}
}

func TestParseYAML_NoHeader(t *testing.T) {
	doc := "- expectation: toBeVisible\n  predicate: {type: label, value: \"${NAME}\"}\n"
	suite, err := ParseYAML([]byte(doc), "dir/checkout.yml", nil)
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if suite.Name != "checkout" {
		t.Errorf("Name = %q, want checkout", suite.Name)
	}
	// unresolved expressions are left as written
	p := suite.Invocations[0]["predicate"].(map[string]interface{})
	if p["value"] != "${NAME}" {
		t.Errorf("value = %v", p["value"])
	}
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		line int
	}{
		{"empty", "", 1},
		{"not a list", "expectation: toExist\n", 1},
		{"scalar item", "- expectation: toExist\n  predicate: {type: id, value: a}\n- 5\n", 3},
		{"null item", "- expectation: toExist\n  predicate: {type: id, value: a}\n-\n", -1},
		{"bad yaml", "- [unclosed\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc), "suite.yaml", nil)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if tt.line < 0 {
				if pe.Line <= 0 {
					t.Errorf("Line = %d, want a line number (%v)", pe.Line, err)
				}
			} else if pe.Line != tt.line {
				t.Errorf("Line = %d, want %d (%v)", pe.Line, tt.line, err)
			}
			if !strings.HasPrefix(err.Error(), "suite.yaml") {
				t.Errorf("Error() = %q, want path prefix", err.Error())
			}
		})
	}
}

func TestParseJSON(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		doc := `[{"expectation": "toExist", "predicate": {"type": "id", "value": "a"}, "atIndex": 0}]`
		suite, err := ParseJSON([]byte(doc), "smoke.json", nil)
		if err != nil {
			t.Fatalf("ParseJSON() error = %v", err)
		}
		if suite.Name != "smoke" || len(suite.Invocations) != 1 {
			t.Errorf("suite = %+v", suite)
		}
		if _, err := suite.Expectations(predicate.Options{}); err != nil {
			t.Errorf("Expectations() error = %v", err)
		}
	})

	t.Run("object", func(t *testing.T) {
		doc := `{
  "name": "profile",
  "platform": "android",
  "env": {"NAME": "Ada"},
  "expectations": [
    {"expectation": "toHaveLabel", "params": ["${NAME}"], "predicate": {"type": "id", "value": "name"}}
  ]
}`
		suite, err := ParseJSON([]byte(doc), "p.json", nil)
		if err != nil {
			t.Fatalf("ParseJSON() error = %v", err)
		}
		if suite.Name != "profile" || suite.Platform != "android" {
			t.Errorf("header = %+v", suite.Header)
		}
		if got := suite.Invocations[0]["params"].([]interface{})[0]; got != "Ada" {
			t.Errorf("params[0] = %v, want Ada", got)
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, doc := range []string{`[`, `{"expectations": 3}`, `[null]`} {
			var pe *ParseError
			if _, err := ParseJSON([]byte(doc), "x.json", nil); !errors.As(err, &pe) {
				t.Errorf("ParseJSON(%q) error = %v, want *ParseError", doc, err)
			}
		}
	})
}

func TestParseScript(t *testing.T) {
	script := `
expect(element(by.id('list').withDescendant(by.text(ITEM))).atIndex(1)).toBeVisible();
expect(element(by.id('spinner'))).not.toExist().withTimeout(2000);
expect(element(by.id('volume'))).toHaveSliderPosition(0.5, 0.1);
`
	suite, err := ParseScript([]byte(script), "list.js", map[string]string{"ITEM": "Milk"})
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}
	if suite.Name != "list" || len(suite.Invocations) != 3 {
		t.Fatalf("suite = %+v", suite)
	}

	exps, err := suite.Expectations(predicate.Options{})
	if err != nil {
		t.Fatalf("Expectations() error = %v", err)
	}
	want := []string{
		`TOBEVISIBLE WITH MATCHER(accessibilityIdentifier == "list" && DESCENDANT(text == "Milk")) AT INDEX(1)`,
		`NOT TOEXIST WITH MATCHER(accessibilityIdentifier == "spinner") TIMEOUT(2s)`,
		`TOHAVESLIDERPOSITION(sliderPosition (~0.1)== “0.5”) WITH MATCHER(accessibilityIdentifier == "volume")`,
	}
	for i, exp := range exps {
		if got := exp.Describe(); got != want[i] {
			t.Errorf("expectation %d = %q, want %q", i+1, got, want[i])
		}
	}
}

func TestParseScript_Error(t *testing.T) {
	_, err := ParseScript([]byte(`expect(by.id)`), "bad.js", nil)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
}

func TestParseFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"suite.yaml", loginYAML},
		{"suite.json", `[{"expectation": "toExist", "predicate": {"type": "id", "value": "a"}}]`},
		{"suite.js", `expect(element(by.id('a'))).toExist();`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suite, err := ParseFile(writeFile(t, tt.name, tt.content), nil)
			if err != nil {
				t.Fatalf("ParseFile() error = %v", err)
			}
			if len(suite.Invocations) == 0 {
				t.Error("no invocations parsed")
			}
		})
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("ParseFile() of a missing file should fail")
	}
}

func TestExpectations_ReportsIndex(t *testing.T) {
	suite := &Suite{
		SourcePath: "s.yaml",
		Invocations: []map[string]interface{}{
			{"expectation": "toExist", "predicate": map[string]interface{}{"type": "id", "value": "a"}},
			{"expectation": "toWiggle", "predicate": map[string]interface{}{"type": "id", "value": "a"}},
		},
	}
	_, err := suite.Expectations(predicate.Options{})
	if !errors.Is(err, core.ErrUnknownKind) {
		t.Fatalf("error = %v, want unknown kind", err)
	}
	if !strings.Contains(err.Error(), "s.yaml: expectation 2") {
		t.Errorf("Error() = %q, want location", err.Error())
	}
}

func TestSplitYAMLDocuments(t *testing.T) {
	parts := splitYAMLDocuments("---\na: 1\n---\n- b\n---  \n")
	if len(parts) != 2 {
		t.Fatalf("parts = %q, want 2", parts)
	}
	if strings.TrimSpace(parts[0]) != "a: 1" || strings.TrimSpace(parts[1]) != "- b" {
		t.Errorf("parts = %q", parts)
	}
}
