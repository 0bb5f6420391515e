// Package mock provides a scripted tree provider for testing without a real device.
package mock

import (
	"fmt"
	"sync"
	"time"

	"github.com/0xflotus/Detox/pkg/core"
	"github.com/0xflotus/Detox/pkg/hierarchy"
)

// Driver is a mock implementation of core.TreeProvider. Each fetch returns
// the next scripted snapshot; the last one repeats once the script runs out.
type Driver struct {
	// Configuration
	Config Config

	mu        sync.Mutex
	snapshots []core.Tree
	fetches   int
}

// Config configures mock driver behavior.
type Config struct {
	// FailOnFetch makes fetch N fail (1-indexed). 0 = never fail.
	FailOnFetch int
	// FetchDelay adds artificial delay per fetch
	FetchDelay time.Duration
	// Platform info to report
	Platform string
}

var _ core.TreeProvider = (*Driver)(nil)

// New creates a mock driver that serves snapshots in order.
// With no snapshots it serves DefaultHierarchy.
func New(cfg Config, snapshots ...core.Tree) *Driver {
	if cfg.Platform == "" {
		cfg.Platform = "mock"
	}
	return &Driver{Config: cfg, snapshots: snapshots}
}

// FromJSON creates a mock driver from JSON hierarchy documents.
func FromJSON(cfg Config, docs ...string) (*Driver, error) {
	snapshots := make([]core.Tree, 0, len(docs))
	for i, doc := range docs {
		tree, err := hierarchy.ParseJSON(doc, nil)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", i+1, err)
		}
		snapshots = append(snapshots, tree)
	}
	return New(cfg, snapshots...), nil
}

// Tree returns the snapshot for the current fetch.
func (d *Driver) Tree() (core.Tree, error) {
	d.mu.Lock()
	d.fetches++
	n := d.fetches
	d.mu.Unlock()

	// Simulate delay
	if d.Config.FetchDelay > 0 {
		time.Sleep(d.Config.FetchDelay)
	}

	// Check if this fetch should fail
	if d.Config.FailOnFetch > 0 && n == d.Config.FailOnFetch {
		return nil, fmt.Errorf("mock failure on fetch %d", n)
	}

	if len(d.snapshots) == 0 {
		return hierarchy.ParseJSON(string(d.Hierarchy()), nil)
	}
	idx := n - 1
	if idx >= len(d.snapshots) {
		idx = len(d.snapshots) - 1
	}
	return d.snapshots[idx], nil
}

// Fetches returns how many trees have been requested.
func (d *Driver) Fetches() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fetches
}

// Hierarchy returns the default mock view hierarchy.
func (d *Driver) Hierarchy() []byte {
	return []byte(`{
  "platform": "` + d.Config.Platform + `",
  "type": "View",
  "bounds": {"x": 0, "y": 0, "width": 1080, "height": 2400},
  "children": [
    {
      "type": "Button",
      "id": "mock-element",
      "text": "Mock Element",
      "bounds": {"x": 100, "y": 200, "width": 200, "height": 50}
    }
  ]
}`)
}
