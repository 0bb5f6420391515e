package hierarchy

import (
	"fmt"

	"github.com/0xflotus/Detox/pkg/core"
)

// Collector captures failure artifacts from hierarchy trees as JSON.
type Collector struct{}

var _ core.ArtifactCollector = Collector{}

// CaptureHierarchy dumps the whole tree.
func (Collector) CaptureHierarchy(tree core.Tree) ([]byte, error) {
	t, ok := tree.(*Tree)
	if !ok {
		return nil, fmt.Errorf("cannot dump tree of type %T", tree)
	}
	return t.Dump()
}

// CaptureTarget dumps the target element without its subtree.
func (Collector) CaptureTarget(tree core.Tree, target core.Node) ([]byte, error) {
	t, ok := tree.(*Tree)
	if !ok {
		return nil, fmt.Errorf("cannot dump tree of type %T", tree)
	}
	return t.DumpNode(target)
}
