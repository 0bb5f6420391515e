// Package invocation loads invocation documents: serialized expectations
// written as YAML, JSON or matcher DSL scripts.
package invocation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/0xflotus/Detox/pkg/expectation"
	"github.com/0xflotus/Detox/pkg/jsengine"
	"github.com/0xflotus/Detox/pkg/predicate"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Header is the optional first document of a YAML suite.
type Header struct {
	Name     string            `yaml:"name" json:"name"`
	Platform string            `yaml:"platform" json:"platform"`
	Env      map[string]string `yaml:"env" json:"env"`
}

// Suite is a named list of serialized expectations.
type Suite struct {
	Header
	SourcePath  string
	Invocations []map[string]interface{}
}

// ParseFile parses a suite, choosing the format by extension. env overrides
// variables declared by the suite itself.
func ParseFile(path string, env map[string]string) (*Suite, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided suite file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data, path, env)
	case ".js":
		return ParseScript(data, path, env)
	default:
		return ParseYAML(data, path, env)
	}
}

// ParseYAML parses one or two YAML documents: an optional header followed by
// the list of invocations. ${...} expressions in string values are expanded
// against the header env overlaid with env.
func ParseYAML(data []byte, sourcePath string, env map[string]string) (*Suite, error) {
	parts := splitYAMLDocuments(string(data))
	if len(parts) == 0 {
		return nil, &ParseError{Path: sourcePath, Line: 1, Message: "empty suite file"}
	}

	suite := &Suite{SourcePath: sourcePath}
	body := parts[0]
	if len(parts) > 1 {
		if err := yaml.Unmarshal([]byte(parts[0]), &suite.Header); err != nil {
			return nil, &ParseError{Path: sourcePath, Message: fmt.Sprintf("invalid header: %v", err)}
		}
		body = parts[1]
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(body), &node); err != nil {
		return nil, &ParseError{Path: sourcePath, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.SequenceNode {
		return nil, &ParseError{Path: sourcePath, Line: 1, Message: "expected a list of expectations"}
	}

	for _, item := range node.Content[0].Content {
		var m map[string]interface{}
		if err := item.Decode(&m); err != nil {
			return nil, &ParseError{Path: sourcePath, Line: item.Line, Message: fmt.Sprintf("invalid expectation: %v", err)}
		}
		if m == nil {
			return nil, &ParseError{Path: sourcePath, Line: item.Line, Message: "expectation must be a mapping"}
		}
		suite.Invocations = append(suite.Invocations, m)
	}
	suite.Env = mergeEnv(suite.Env, env)
	if err := suite.expand(); err != nil {
		return nil, err
	}
	suite.defaultName()
	return suite, nil
}

// ParseJSON parses either a bare array of invocations or an object with
// name, platform, env and expectations.
func ParseJSON(data []byte, sourcePath string, env map[string]string) (*Suite, error) {
	suite := &Suite{SourcePath: sourcePath}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &suite.Invocations); err != nil {
			return nil, &ParseError{Path: sourcePath, Message: fmt.Sprintf("invalid JSON: %v", err)}
		}
	} else {
		var doc struct {
			Header
			Expectations []map[string]interface{} `json:"expectations"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, &ParseError{Path: sourcePath, Message: fmt.Sprintf("invalid JSON: %v", err)}
		}
		suite.Header = doc.Header
		suite.Invocations = doc.Expectations
	}

	for i, m := range suite.Invocations {
		if m == nil {
			return nil, &ParseError{Path: sourcePath, Message: fmt.Sprintf("expectation %d must be an object", i+1)}
		}
	}
	suite.Env = mergeEnv(suite.Env, env)
	if err := suite.expand(); err != nil {
		return nil, err
	}
	suite.defaultName()
	return suite, nil
}

// ParseScript runs a matcher DSL script and collects the expectations it
// declares. env is exposed to the script as globals.
func ParseScript(data []byte, sourcePath string, env map[string]string) (*Suite, error) {
	engine, err := jsengine.New()
	if err != nil {
		return nil, err
	}
	suite := &Suite{SourcePath: sourcePath, Header: Header{Env: env}}
	for k, v := range env {
		engine.SetVariable(k, v)
	}

	invocations, err := engine.Invocations(string(data))
	if err != nil {
		return nil, &ParseError{Path: sourcePath, Message: err.Error()}
	}
	suite.Invocations = invocations
	suite.defaultName()
	return suite, nil
}

// Expectations builds every invocation, stopping at the first construction error.
func (s *Suite) Expectations(opts predicate.Options) ([]expectation.Expectation, error) {
	out := make([]expectation.Expectation, 0, len(s.Invocations))
	for i, m := range s.Invocations {
		exp, err := expectation.FromMap(m, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: expectation %d: %w", s.SourcePath, i+1, err)
		}
		out = append(out, exp)
	}
	return out, nil
}

// mergeEnv returns base overlaid with override.
func mergeEnv(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func (s *Suite) defaultName() {
	if s.Name == "" && s.SourcePath != "" {
		base := filepath.Base(s.SourcePath)
		s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
}

// expand replaces ${...} expressions in string values using the header env.
func (s *Suite) expand() error {
	if !containsExpression(s.Invocations) {
		return nil
	}
	engine, err := jsengine.New()
	if err != nil {
		return err
	}
	engine.SetPlatform(s.Platform)
	for k, v := range s.Env {
		engine.SetVariable(k, v)
	}
	for i, m := range s.Invocations {
		expanded, err := expandValue(engine, m)
		if err != nil {
			return &ParseError{Path: s.SourcePath, Message: fmt.Sprintf("expectation %d: %v", i+1, err)}
		}
		s.Invocations[i] = expanded.(map[string]interface{})
	}
	return nil
}

func expandValue(engine *jsengine.Engine, v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case string:
		if !strings.Contains(x, "${") {
			return x, nil
		}
		return engine.ExpandVariables(x)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, item := range x {
			e, err := expandValue(engine, item)
			if err != nil {
				return nil, err
			}
			out[k] = e
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			e, err := expandValue(engine, item)
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	default:
		return v, nil
	}
}

func containsExpression(invocations []map[string]interface{}) bool {
	var walk func(v interface{}) bool
	walk = func(v interface{}) bool {
		switch x := v.(type) {
		case string:
			return strings.Contains(x, "${")
		case map[string]interface{}:
			for _, item := range x {
				if walk(item) {
					return true
				}
			}
		case []interface{}:
			for _, item := range x {
				if walk(item) {
					return true
				}
			}
		}
		return false
	}
	for _, m := range invocations {
		if walk(m) {
			return true
		}
	}
	return false
}

func splitYAMLDocuments(content string) []string {
	var parts []string
	var current strings.Builder

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimRight(line, " \t\r") == "---" {
			if strings.TrimSpace(current.String()) != "" {
				parts = append(parts, current.String())
			}
			current.Reset()
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}

	if strings.TrimSpace(current.String()) != "" {
		parts = append(parts, current.String())
	}
	return parts
}
