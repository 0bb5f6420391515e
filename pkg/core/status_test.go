package core

import (
	"errors"
	"testing"
)

func TestStepStatus_String(t *testing.T) {
	tests := []struct {
		status StepStatus
		want   string
	}{
		{StatusPending, "pending"},
		{StatusRunning, "running"},
		{StatusPassed, "passed"},
		{StatusFailed, "failed"},
		{StatusErrored, "errored"},
		{StatusSkipped, "skipped"},
		{StepStatus(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("StepStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStepStatus_IsTerminal(t *testing.T) {
	terminal := []StepStatus{StatusPassed, StatusFailed, StatusErrored, StatusSkipped}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false, want true", s)
		}
	}
	for _, s := range []StepStatus{StatusPending, StatusRunning} {
		if s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true, want false", s)
		}
	}
}

func TestStepStatus_IsSuccess(t *testing.T) {
	if !StatusPassed.IsSuccess() {
		t.Error("passed should be success")
	}
	for _, s := range []StepStatus{StatusFailed, StatusErrored, StatusSkipped, StatusPending} {
		if s.IsSuccess() {
			t.Errorf("%s.IsSuccess() = true", s)
		}
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want StepStatus
	}{
		{"nil", nil, StatusPassed},
		{"assertion", ErrExpectationFailed, StatusFailed},
		{"timeout", ErrTimeout, StatusFailed},
		{"plain", errors.New("fetch failed"), StatusFailed},
		{"construction", ErrUnknownKind, StatusErrored},
		{"type mismatch", ErrTypeMismatch, StatusErrored},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusForError(tt.err); got != tt.want {
				t.Errorf("StatusForError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCategory_String(t *testing.T) {
	tests := []struct {
		cat  ErrorCategory
		want string
	}{
		{ErrCategoryNone, "none"},
		{ErrCategoryConstruction, "construction"},
		{ErrCategoryLookup, "lookup"},
		{ErrCategoryTypeMismatch, "type_mismatch"},
		{ErrCategoryAssertion, "assertion"},
		{ErrCategoryTimeout, "timeout"},
		{ErrorCategory(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.cat.String(); got != tt.want {
			t.Errorf("ErrorCategory(%d).String() = %q, want %q", tt.cat, got, tt.want)
		}
	}
}
