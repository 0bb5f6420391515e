// Package expectation implements timed assertions over a located element:
// construction from the serialized form, a single synchronous attempt, and the
// retry state machine that polls until success or timeout.
package expectation

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/0xflotus/Detox/pkg/core"
	"github.com/0xflotus/Detox/pkg/locator"
	"github.com/0xflotus/Detox/pkg/predicate"
)

// Kind tags used in the serialized form.
const (
	KindToBeVisible          = "toBeVisible"
	KindToExist              = "toExist"
	KindToHaveText           = "toHaveText"
	KindToHaveLabel          = "toHaveLabel"
	KindToHaveID             = "toHaveId"
	KindToHaveValue          = "toHaveValue"
	KindToHavePlaceholder    = "toHavePlaceholder"
	KindToHaveSliderPosition = "toHaveSliderPosition"
)

// Host attribute keys compared by the attribute kinds.
var attributeKeys = map[string]string{
	KindToHaveText:        predicate.KeyText,
	KindToHaveLabel:       predicate.KeyLabel,
	KindToHaveID:          predicate.KeyIdentifier,
	KindToHaveValue:       predicate.KeyValue,
	KindToHavePlaceholder: "placeholder",
}

// AttributeKey returns the host key compared by an attribute expectation kind.
func AttributeKey(kind string) (string, bool) {
	key, ok := attributeKeys[kind]
	return key, ok
}

// Epsilon is the smallest tolerance a numeric position comparison accepts.
const Epsilon = 0x1p-52

// DefaultTolerance is used when a numeric position expectation has none.
var DefaultTolerance = math.Sqrt(Epsilon)

// ClampTolerance keeps t inside [Epsilon, 1-Epsilon].
func ClampTolerance(t float64) float64 {
	return math.Min(math.Max(t, Epsilon), 1-Epsilon)
}

// Base holds the fields shared by every expectation.
type Base struct {
	Tag     string // serialized kind
	Element locator.Locator
	Mods    predicate.Modifiers
	Timeout time.Duration // zero means a single attempt
}

func (b Base) describe(extra string) string {
	var sb strings.Builder
	if b.Mods.Has(predicate.Not) {
		sb.WriteString("NOT ")
	}
	sb.WriteString(strings.ToUpper(b.Tag))
	sb.WriteString(extra)
	sb.WriteString(" WITH ")
	sb.WriteString(b.Element.Describe())
	if b.Timeout > 0 {
		sb.WriteString(" TIMEOUT(")
		sb.WriteString(FormatDuration(b.Timeout))
		sb.WriteString(")")
	}
	return sb.String()
}

// Expectation is an assertion about the element a locator resolves to.
type Expectation interface {
	// Kind returns the serialized kind tag.
	Kind() string

	// Common returns the shared fields.
	Common() Base

	// Describe renders the expectation for diagnostics.
	Describe() string

	// evaluate returns the raw result before modifiers, and the resolved
	// element when there is one.
	evaluate(tree core.Tree) (holds bool, target core.Node, err error)
}

// Visible holds when the element resolves to exactly one visible node.
// Negated, an element that does not exist also satisfies it.
type Visible struct {
	Base
}

func (e *Visible) Kind() string     { return e.Tag }
func (e *Visible) Common() Base     { return e.Base }
func (e *Visible) Describe() string { return e.describe("") }

func (e *Visible) evaluate(tree core.Tree) (bool, core.Node, error) {
	n, err := e.Element.Single(tree)
	if err != nil {
		if e.Mods.Has(predicate.Not) && isNotFound(err) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return tree.IsVisible(n), n, nil
}

// Exists holds when the element resolves to at least one node.
type Exists struct {
	Base
}

func (e *Exists) Kind() string     { return e.Tag }
func (e *Exists) Common() Base     { return e.Base }
func (e *Exists) Describe() string { return e.describe("") }

func (e *Exists) evaluate(tree core.Tree) (bool, core.Node, error) {
	nodes, err := e.Element.Resolve(tree)
	if err != nil {
		return false, nil, err
	}
	if len(nodes) == 0 {
		return false, nil, nil
	}
	return true, nodes[0], nil
}

// HasAttribute holds when one string attribute of the element equals Value.
type HasAttribute struct {
	Base
	Key   string // host attribute key
	Value string
}

func (e *HasAttribute) Kind() string { return e.Tag }
func (e *HasAttribute) Common() Base { return e.Base }

func (e *HasAttribute) Describe() string {
	return e.describe("(" + e.Key + " == “" + e.Value + "”)")
}

func (e *HasAttribute) evaluate(tree core.Tree) (bool, core.Node, error) {
	n, err := e.Element.Single(tree)
	if err != nil {
		return false, nil, err
	}
	actual, ok := tree.Attribute(n, e.Key)
	return ok && actual == e.Value, n, nil
}

// HasNumericPosition holds when the element is a scalar control whose
// normalized position is within Tolerance of Expected.
type HasNumericPosition struct {
	Base
	Expected  float64
	Tolerance *float64 // clamped; nil compares with DefaultTolerance
}

// NewHasNumericPosition creates a numeric position expectation, clamping the
// tolerance when one is given.
func NewHasNumericPosition(base Base, expected float64, tolerance *float64) *HasNumericPosition {
	e := &HasNumericPosition{Base: base, Expected: expected}
	if tolerance != nil {
		t := ClampTolerance(*tolerance)
		e.Tolerance = &t
	}
	return e
}

func (e *HasNumericPosition) Kind() string { return e.Tag }
func (e *HasNumericPosition) Common() Base { return e.Base }

func (e *HasNumericPosition) Describe() string {
	tol := ""
	if e.Tolerance != nil {
		tol = "(~" + FormatNumber(*e.Tolerance) + ")"
	}
	return e.describe("(sliderPosition " + tol + "== “" + FormatNumber(e.Expected) + "”)")
}

func (e *HasNumericPosition) tolerance() float64 {
	if e.Tolerance != nil {
		return *e.Tolerance
	}
	return DefaultTolerance
}

func (e *HasNumericPosition) evaluate(tree core.Tree) (bool, core.Node, error) {
	n, err := e.Element.Single(tree)
	if err != nil {
		return false, nil, err
	}
	position, err := tree.ScalarPosition(n)
	if err != nil {
		return false, n, err
	}
	return math.Abs(position-e.Expected) <= e.tolerance(), n, nil
}

// FormatNumber renders a float the way descriptions expect: shortest form,
// with a trailing ".0" for integral values.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}

// FormatDuration renders a timeout for descriptions.
func FormatDuration(d time.Duration) string {
	return d.String()
}
