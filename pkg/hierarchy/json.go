package hierarchy

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/0xflotus/Detox/pkg/core"
)

// JSON field names of the hierarchy format, mapped to attribute keys.
var jsonAttributes = map[string]string{
	"id":          AttrIdentifier,
	"label":       AttrLabel,
	"value":       AttrValue,
	"text":        AttrText,
	"placeholder": AttrPlaceholder,
}

// ParseJSON parses a JSON hierarchy: one element object or an array of them.
// Elements carry "type", "id", "label", "value", "text", "placeholder",
// "visible", "enabled", "position", "bounds" and "children". A nil table uses
// GenericTypes.
func ParseJSON(data string, types *TypeTable) (*Tree, error) {
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("invalid JSON hierarchy")
	}

	root := gjson.Parse(data)
	var roots []*Element
	switch {
	case root.IsArray():
		for _, r := range root.Array() {
			if !r.IsObject() {
				return nil, fmt.Errorf("hierarchy root is not an object: %s", r.Type)
			}
			roots = append(roots, parseJSONElement(r))
		}
	case root.IsObject():
		roots = append(roots, parseJSONElement(root))
	default:
		return nil, fmt.Errorf("hierarchy must be an object or array, got %s", root.Type)
	}

	if len(roots) == 0 {
		return nil, fmt.Errorf("no elements found in hierarchy")
	}
	platform := root.Get("platform").String()
	if platform == "" {
		platform = "json"
	}
	return NewTree(platform, roots, types), nil
}

func parseJSONElement(r gjson.Result) *Element {
	elem := newElement(r.Get("type").String())

	for field, key := range jsonAttributes {
		if v := r.Get(field); v.Exists() && v.Type != gjson.Null {
			elem.set(key, v.String())
		}
	}
	if v := r.Get("visible"); v.Exists() {
		elem.Displayed = v.Bool()
	}
	if v := r.Get("enabled"); v.Exists() {
		elem.Enabled = v.Bool()
	}
	if v := r.Get("position"); v.Exists() && v.Type == gjson.Number {
		pos := v.Float()
		elem.Position = &pos
	}
	if b := r.Get("bounds"); b.IsObject() {
		elem.HasBounds = true
		elem.Bounds = core.Bounds{
			X:      int(b.Get("x").Int()),
			Y:      int(b.Get("y").Int()),
			Width:  int(b.Get("width").Int()),
			Height: int(b.Get("height").Int()),
		}
	}

	r.Get("children").ForEach(func(_, child gjson.Result) bool {
		if child.IsObject() {
			elem.Children = append(elem.Children, parseJSONElement(child))
		}
		return true
	})
	return elem
}

// jsonElement is the serialized form written by Dump.
type jsonElement struct {
	Type        string         `json:"type"`
	ID          *string        `json:"id,omitempty"`
	Label       *string        `json:"label,omitempty"`
	Value       *string        `json:"value,omitempty"`
	Text        *string        `json:"text,omitempty"`
	Placeholder *string        `json:"placeholder,omitempty"`
	Visible     bool           `json:"visible"`
	Enabled     bool           `json:"enabled"`
	Position    *float64       `json:"position,omitempty"`
	Bounds      *core.Bounds   `json:"bounds,omitempty"`
	Children    []*jsonElement `json:"children,omitempty"`
}

func toJSONElement(e *Element, depth int) *jsonElement {
	out := &jsonElement{
		Type:        e.Type,
		ID:          e.attr(AttrIdentifier),
		Label:       e.attr(AttrLabel),
		Value:       e.attr(AttrValue),
		Text:        e.attr(AttrText),
		Placeholder: e.attr(AttrPlaceholder),
		Visible:     e.Displayed,
		Enabled:     e.Enabled,
		Position:    e.Position,
	}
	if e.HasBounds {
		b := e.Bounds
		out.Bounds = &b
	}
	if depth != 0 {
		for _, c := range e.Children {
			out.Children = append(out.Children, toJSONElement(c, depth-1))
		}
	}
	return out
}

// attr returns the attribute when present, so empty values survive a dump.
func (e *Element) attr(key string) *string {
	v, ok := e.Attributes[key]
	if !ok {
		return nil
	}
	return &v
}

// Dump renders the whole tree in the JSON hierarchy format.
func (t *Tree) Dump() ([]byte, error) {
	roots := make([]*jsonElement, len(t.roots))
	for i, r := range t.roots {
		roots[i] = toJSONElement(r, -1)
	}
	if len(roots) == 1 {
		return json.MarshalIndent(roots[0], "", "  ")
	}
	return json.MarshalIndent(roots, "", "  ")
}

// DumpNode renders n without its children. Used for failure artifacts.
func (t *Tree) DumpNode(n core.Node) ([]byte, error) {
	e := asElement(n)
	if e == nil {
		return nil, fmt.Errorf("node %v does not belong to a hierarchy tree", n)
	}
	return json.MarshalIndent(toJSONElement(e, 0), "", "  ")
}
