package core

import (
	"time"
)

// AssertionResult captures the outcome of evaluating one expectation
type AssertionResult struct {
	// Identity
	Index       int    `json:"index"`       // 0-based position in the suite
	Kind        string `json:"kind"`        // Expectation kind: toBeVisible, toHaveText, etc.
	Description string `json:"description"` // Rendered expectation

	// Status
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Retry tracking
	Attempts int `json:"attempts"`

	// Output
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	// Debug artifacts
	Attachments []Attachment `json:"attachments,omitempty"`
}

// SuiteResult captures the outcome of a list of expectations
type SuiteResult struct {
	Name      string            `json:"name"`
	RunID     string            `json:"runId"`
	Status    StepStatus        `json:"status"`
	StartTime time.Time         `json:"startTime"`
	Duration  time.Duration     `json:"duration"`
	Results   []AssertionResult `json:"results"`

	// Summary (computed)
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
}

// CalculateSummary computes summary counts and the aggregate status
func (r *SuiteResult) CalculateSummary() {
	r.Total = len(r.Results)
	r.Passed, r.Failed, r.Errored, r.Skipped = 0, 0, 0, 0

	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			r.Passed++
		case StatusFailed:
			r.Failed++
		case StatusErrored:
			r.Errored++
		case StatusSkipped:
			r.Skipped++
		}
	}

	switch {
	case r.Errored > 0:
		r.Status = StatusErrored
	case r.Failed > 0:
		r.Status = StatusFailed
	case r.Total > 0 && r.Skipped == r.Total:
		r.Status = StatusSkipped
	default:
		r.Status = StatusPassed
	}
}
