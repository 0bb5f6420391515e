package hierarchy

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// iOS element types whose value is their text content.
var iosTextInputTypes = map[string]bool{
	"XCUIElementTypeTextField":       true,
	"XCUIElementTypeSecureTextField": true,
	"XCUIElementTypeSearchField":     true,
	"XCUIElementTypeTextView":        true,
}

// ParseIOS parses iOS UI hierarchy XML into a tree.
// WDA uses XCUIElementType* tags with attributes:
// - type: XCUIElementTypeButton, XCUIElementTypeTextField, etc.
// - name: accessibility identifier
// - label: accessibility label
// - value: current value (percentage for sliders)
// - placeholderValue: placeholder text for text fields
// - enabled, visible: states
// - x, y, width, height: bounds
func ParseIOS(xmlData string) (*Tree, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var roots []*Element
	var parseElement func() (*Element, error)

	parseElement = func() (*Element, error) {
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, err
			}

			switch t := token.(type) {
			case xml.StartElement:
				// "AppiumAUT" wraps the application element - skip and parse children
				if t.Name.Local == "AppiumAUT" {
					for {
						child, err := parseElement()
						if err != nil {
							return nil, unexpectedEOF(err)
						}
						if child == nil {
							break
						}
						roots = append(roots, child)
					}
					continue
				}

				elem := newElement(t.Name.Local)
				var rawValue string
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "type":
						elem.Type = attr.Value
					case "name":
						elem.set(AttrIdentifier, attr.Value)
					case "label":
						elem.set(AttrLabel, attr.Value)
					case "value":
						rawValue = attr.Value
						elem.set(AttrValue, attr.Value)
					case "placeholderValue":
						elem.set(AttrPlaceholder, attr.Value)
					case "enabled":
						elem.Enabled = attr.Value == "true"
					case "visible":
						elem.Displayed = attr.Value == "true"
					case "x", "y", "width", "height":
						if v, err := strconv.Atoi(attr.Value); err == nil {
							setBound(elem, attr.Name.Local, v)
						}
					}
				}
				applyIOSText(elem, rawValue)

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
				return nil, nil
			}
		}
	}

	var parseErr error
	for {
		elem, err := parseElement()
		if err != nil {
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
	if len(roots) == 0 {
		return nil, fmt.Errorf("no elements found in page source")
	}

	return NewTree("ios", roots, IOSTypes()), nil
}

// applyIOSText derives the text attribute and slider position, which WDA
// does not report directly.
func applyIOSText(elem *Element, value string) {
	switch {
	case elem.Type == "XCUIElementTypeStaticText":
		if label, ok := elem.Attributes[AttrLabel]; ok {
			elem.set(AttrText, label)
		} else {
			elem.set(AttrText, value)
		}
	case iosTextInputTypes[elem.Type]:
		elem.set(AttrText, value)
	case elem.Type == "XCUIElementTypeSlider":
		if pos, ok := parsePosition(value); ok {
			elem.Position = &pos
		}
	}
}

func setBound(elem *Element, name string, v int) {
	elem.HasBounds = true
	switch name {
	case "x":
		elem.Bounds.X = v
	case "y":
		elem.Bounds.Y = v
	case "width":
		elem.Bounds.Width = v
	case "height":
		elem.Bounds.Height = v
	}
}

// parsePosition reads "50%" or "0.5" as a normalized position.
func parsePosition(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err != nil {
			return 0, false
		}
		return v / 100, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// unexpectedEOF reports EOF inside an open element as a truncated document.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
