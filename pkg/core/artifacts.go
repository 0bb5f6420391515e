// Package core provides the host contracts, error taxonomy and result types
// shared by the matching and expectation engine.
package core

// Attachment represents a debug artifact captured for a failed assertion
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: hierarchy, target
	ContentType string `json:"contentType"` // MIME type: application/json, text/plain
	Path        string `json:"path"`        // File path relative to output directory
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentHierarchy = "hierarchy"
	AttachmentTarget    = "target"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// NewHierarchyAttachment creates a UI hierarchy attachment
func NewHierarchyAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentHierarchy,
		ContentType: ContentTypeJSON,
		Path:        path,
		Body:        data,
	}
}

// NewTargetAttachment creates an attachment describing the failing target element
func NewTargetAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentTarget,
		ContentType: ContentTypeJSON,
		Path:        path,
		Body:        data,
	}
}

// ArtifactConfig controls when artifacts are captured
type ArtifactConfig struct {
	CaptureOnFailure bool `yaml:"captureOnFailure" json:"captureOnFailure"` // Default: true
	CaptureOnSuccess bool `yaml:"captureOnSuccess" json:"captureOnSuccess"` // Default: false
	UIHierarchy      bool `yaml:"uiHierarchy" json:"uiHierarchy"`           // Default: true
	Target           bool `yaml:"target" json:"target"`                     // Default: true
}

// DefaultArtifactConfig returns sensible defaults for artifact capture
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		CaptureOnFailure: true,
		CaptureOnSuccess: false,
		UIHierarchy:      true,
		Target:           true,
	}
}

// ShouldCapture returns true if artifacts should be captured for the given status
func (c ArtifactConfig) ShouldCapture(status StepStatus) bool {
	switch status {
	case StatusFailed, StatusErrored:
		return c.CaptureOnFailure
	case StatusPassed:
		return c.CaptureOnSuccess
	default:
		return false
	}
}

// ArtifactCollector captures debug artifacts for an element of a tree.
// The target may be nil when the element never resolved.
type ArtifactCollector interface {
	CaptureHierarchy(tree Tree) ([]byte, error)
	CaptureTarget(tree Tree, target Node) ([]byte, error)
}

// NullArtifactCollector is a no-op implementation for testing
type NullArtifactCollector struct{}

// CaptureHierarchy returns nil (no-op)
func (n NullArtifactCollector) CaptureHierarchy(_ Tree) ([]byte, error) { return nil, nil }

// CaptureTarget returns nil (no-op)
func (n NullArtifactCollector) CaptureTarget(_ Tree, _ Node) ([]byte, error) { return nil, nil }
