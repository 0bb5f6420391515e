package mock

import (
	"testing"
	"time"

	"github.com/0xflotus/Detox/pkg/hierarchy"
)

func TestDriver_DefaultHierarchy(t *testing.T) {
	d := New(Config{})
	if d.Config.Platform != "mock" {
		t.Errorf("Platform = %q, want mock", d.Config.Platform)
	}

	tree, err := d.Tree()
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	ht, ok := tree.(*hierarchy.Tree)
	if !ok {
		t.Fatalf("Tree() = %T, want *hierarchy.Tree", tree)
	}
	if ht.Platform != "mock" {
		t.Errorf("tree platform = %q, want mock", ht.Platform)
	}

	found := false
	for _, e := range ht.Elements() {
		if e.Attributes[hierarchy.AttrIdentifier] == "mock-element" {
			found = true
		}
	}
	if !found {
		t.Error("default hierarchy should contain mock-element")
	}
}

func TestDriver_SnapshotsInOrder(t *testing.T) {
	d, err := FromJSON(Config{},
		`{"type": "View", "id": "first"}`,
		`{"type": "View", "id": "second"}`,
	)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}

	want := []string{"first", "second", "second", "second"}
	for i, id := range want {
		tree, err := d.Tree()
		if err != nil {
			t.Fatalf("fetch %d error = %v", i+1, err)
		}
		got, _ := tree.Attribute(tree.Roots()[0], hierarchy.AttrIdentifier)
		if got != id {
			t.Errorf("fetch %d = %q, want %q", i+1, got, id)
		}
	}
	if d.Fetches() != len(want) {
		t.Errorf("Fetches() = %d, want %d", d.Fetches(), len(want))
	}
}

func TestDriver_FailOnFetch(t *testing.T) {
	d := New(Config{FailOnFetch: 2})

	if _, err := d.Tree(); err != nil {
		t.Errorf("fetch 1 error = %v", err)
	}
	if _, err := d.Tree(); err == nil {
		t.Error("fetch 2 should fail")
	}
	if _, err := d.Tree(); err != nil {
		t.Errorf("fetch 3 error = %v", err)
	}
}

func TestDriver_FetchDelay(t *testing.T) {
	d := New(Config{FetchDelay: 20 * time.Millisecond})

	start := time.Now()
	if _, err := d.Tree(); err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Tree() took %v, want at least 20ms", elapsed)
	}
}

func TestFromJSON_Invalid(t *testing.T) {
	if _, err := FromJSON(Config{}, `{"type": "View"}`, `not json`); err == nil {
		t.Error("FromJSON() should fail on invalid snapshot")
	}
}
