package hierarchy

// TypeTable records single inheritance between element type names, so a
// kind-of check can walk from a concrete type up to its ancestors.
type TypeTable struct {
	parents map[string]string
	scalar  string
}

// NewTypeTable creates a table. scalar is the base type of scalar controls.
func NewTypeTable(scalar string, parents map[string]string) *TypeTable {
	t := &TypeTable{parents: make(map[string]string, len(parents)), scalar: scalar}
	for child, parent := range parents {
		t.parents[child] = parent
	}
	return t
}

// Register adds or replaces the parent of child.
func (t *TypeTable) Register(child, parent string) {
	t.parents[child] = parent
}

// Knows reports whether name appears in the table as a type or a parent.
func (t *TypeTable) Knows(name string) bool {
	if _, ok := t.parents[name]; ok {
		return true
	}
	for _, parent := range t.parents {
		if parent == name {
			return true
		}
	}
	return false
}

// IsKindOf walks from typeName up the table looking for ancestor.
func (t *TypeTable) IsKindOf(typeName, ancestor string) bool {
	seen := make(map[string]bool)
	for cur := typeName; cur != "" && !seen[cur]; cur = t.parents[cur] {
		if cur == ancestor {
			return true
		}
		seen[cur] = true
	}
	return false
}

// IsScalar reports whether typeName is a scalar control.
func (t *TypeTable) IsScalar(typeName string) bool {
	return t.scalar != "" && t.IsKindOf(typeName, t.scalar)
}

// IOSTypes returns the UIKit class tree with WDA element types mapped onto
// the class that backs them.
func IOSTypes() *TypeTable {
	return NewTypeTable("UISlider", map[string]string{
		"UIResponder":        "NSObject",
		"UIApplication":      "UIResponder",
		"UIView":             "UIResponder",
		"UIWindow":           "UIView",
		"UIControl":          "UIView",
		"UIButton":           "UIControl",
		"UISlider":           "UIControl",
		"UISwitch":           "UIControl",
		"UITextField":        "UIControl",
		"UISegmentedControl": "UIControl",
		"UILabel":            "UIView",
		"UIImageView":        "UIView",
		"UIScrollView":       "UIView",
		"UITextView":         "UIScrollView",
		"UITableView":        "UIScrollView",
		"UICollectionView":   "UIScrollView",
		"UITableViewCell":    "UIView",
		"UIPickerView":       "UIView",

		// React Native views
		"RCTView":       "UIView",
		"RCTText":       "UIView",
		"RCTTextView":   "UIView",
		"RCTScrollView": "UIView",

		// WDA element types
		"XCUIElementTypeApplication":      "UIApplication",
		"XCUIElementTypeWindow":           "UIWindow",
		"XCUIElementTypeOther":            "UIView",
		"XCUIElementTypeButton":           "UIButton",
		"XCUIElementTypeStaticText":       "UILabel",
		"XCUIElementTypeTextField":        "UITextField",
		"XCUIElementTypeSecureTextField":  "UITextField",
		"XCUIElementTypeSearchField":      "UITextField",
		"XCUIElementTypeTextView":         "UITextView",
		"XCUIElementTypeSlider":           "UISlider",
		"XCUIElementTypeSwitch":           "UISwitch",
		"XCUIElementTypeSegmentedControl": "UISegmentedControl",
		"XCUIElementTypeImage":            "UIImageView",
		"XCUIElementTypeScrollView":       "UIScrollView",
		"XCUIElementTypeTable":            "UITableView",
		"XCUIElementTypeCollectionView":   "UICollectionView",
		"XCUIElementTypeCell":             "UITableViewCell",
		"XCUIElementTypePicker":           "UIPickerView",
	})
}

// AndroidTypes returns the android.view class tree.
func AndroidTypes() *TypeTable {
	return NewTypeTable("android.widget.AbsSeekBar", map[string]string{
		"android.view.View":                         "java.lang.Object",
		"android.view.ViewGroup":                    "android.view.View",
		"android.widget.FrameLayout":                "android.view.ViewGroup",
		"android.widget.LinearLayout":               "android.view.ViewGroup",
		"android.widget.RelativeLayout":             "android.view.ViewGroup",
		"android.widget.ScrollView":                 "android.widget.FrameLayout",
		"android.widget.HorizontalScrollView":       "android.widget.FrameLayout",
		"android.widget.TextView":                   "android.view.View",
		"android.widget.EditText":                   "android.widget.TextView",
		"android.widget.Button":                     "android.widget.TextView",
		"android.widget.CompoundButton":             "android.widget.Button",
		"android.widget.CheckBox":                   "android.widget.CompoundButton",
		"android.widget.Switch":                     "android.widget.CompoundButton",
		"android.widget.RadioButton":                "android.widget.CompoundButton",
		"android.widget.ImageView":                  "android.view.View",
		"android.widget.ImageButton":                "android.widget.ImageView",
		"android.widget.ProgressBar":                "android.view.View",
		"android.widget.AbsSeekBar":                 "android.widget.ProgressBar",
		"android.widget.SeekBar":                    "android.widget.AbsSeekBar",
		"androidx.recyclerview.widget.RecyclerView": "android.view.ViewGroup",

		// React Native views
		"com.facebook.react.views.view.ReactViewGroup": "android.view.ViewGroup",
		"com.facebook.react.views.text.ReactTextView":  "android.widget.TextView",
	})
}

// GenericTypes returns the small type tree used by JSON hierarchies.
func GenericTypes() *TypeTable {
	return NewTypeTable("Slider", map[string]string{
		"Button":     "View",
		"Text":       "View",
		"TextField":  "View",
		"Image":      "View",
		"Switch":     "View",
		"Slider":     "View",
		"Group":      "View",
		"ScrollView": "View",
	})
}
