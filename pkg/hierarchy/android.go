package hierarchy

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/0xflotus/Detox/pkg/core"
)

// ParseAndroid parses Android UI hierarchy XML into a tree.
// Supports both formats:
// - UIAutomator dump: uses class name as element tag (e.g., <android.widget.FrameLayout>)
// - Appium format: uses <node> elements with a class attribute
//
// resource-id maps to the identifier, content-desc to the label, hint to the
// placeholder. Seek bars report their position through text ("0.5" or "50%").
func ParseAndroid(xmlData string) (*Tree, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var roots []*Element
	foundHierarchy := false
	var parseElement func() (*Element, error)

	parseElement = func() (*Element, error) {
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, err
			}

			switch t := token.(type) {
			case xml.StartElement:
				// Skip the hierarchy element
				if t.Name.Local == "hierarchy" {
					foundHierarchy = true
					continue
				}

				elem := newElement(t.Name.Local) // Class name is the element tag
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "text":
						elem.set(AttrText, attr.Value)
					case "resource-id":
						elem.set(AttrIdentifier, attr.Value)
					case "content-desc":
						elem.set(AttrLabel, attr.Value)
					case "hint":
						elem.set(AttrPlaceholder, attr.Value)
					case "class":
						elem.Type = attr.Value // Override if class attr exists
					case "bounds":
						elem.Bounds = parseBounds(attr.Value)
						elem.HasBounds = true
					case "enabled":
						elem.Enabled = attr.Value == "true"
					case "displayed":
						elem.Displayed = attr.Value != "false"
					}
				}

				// Parse children recursively
				for {
					child, err := parseElement()
					if err != nil {
						return nil, unexpectedEOF(err)
					}
					if child == nil {
						break
					}
					elem.Children = append(elem.Children, child)
				}

				return elem, nil

			case xml.EndElement:
				return nil, nil // End of current element
			}
		}
	}

	var parseErr error
	for {
		elem, err := parseElement()
		if err != nil {
			// io.EOF is expected at end of document
			if err != io.EOF {
				parseErr = err
			}
			break
		}
		if elem != nil {
			roots = append(roots, elem)
		}
	}

	if parseErr != nil {
		return nil, fmt.Errorf("parse page source: %w", parseErr)
	}
	if !foundHierarchy {
		return nil, fmt.Errorf("invalid page source: no hierarchy element found")
	}

	tree := NewTree("android", roots, AndroidTypes())
	for _, elem := range tree.Elements() {
		if tree.types.IsScalar(elem.Type) {
			if pos, ok := parsePosition(elem.Attributes[AttrText]); ok {
				elem.Position = &pos
			}
		}
	}
	return tree, nil
}

// parseBounds parses Android bounds string "[x1,y1][x2,y2]" to Bounds.
func parseBounds(s string) core.Bounds {
	// Format: [x1,y1][x2,y2]
	s = strings.ReplaceAll(s, "][", ",")
	s = strings.Trim(s, "[]")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return core.Bounds{}
	}

	x1, _ := strconv.Atoi(parts[0])
	y1, _ := strconv.Atoi(parts[1])
	x2, _ := strconv.Atoi(parts[2])
	y2, _ := strconv.Atoi(parts[3])

	return core.Bounds{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}
