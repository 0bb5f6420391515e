// Package executor runs suites of expectations against a tree provider,
// connecting the retry engine to results and reports.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/0xflotus/Detox/pkg/core"
	"github.com/0xflotus/Detox/pkg/expectation"
	"github.com/0xflotus/Detox/pkg/invocation"
	"github.com/0xflotus/Detox/pkg/logger"
	"github.com/0xflotus/Detox/pkg/predicate"
	"github.com/0xflotus/Detox/pkg/scheduler"
)

// RunnerConfig configures the suite runner.
type RunnerConfig struct {
	Options        predicate.Options  // Predicate construction options
	Interval       time.Duration      // Delay between attempts (0 = expectation.DefaultInterval)
	DefaultTimeout time.Duration      // Applied to invocations without a timeout
	StopOnFail     bool               // Skip remaining expectations after the first failure
	Artifacts      core.ArtifactConfig
	Collector      core.ArtifactCollector // nil disables artifact capture

	// Live progress callbacks
	OnAssertionStart func(idx, total int, desc string)
	OnAssertionEnd   func(res core.AssertionResult)
}

// Runner evaluates expectations one at a time on a scheduler loop that
// owns every tree access.
type Runner struct {
	config   RunnerConfig
	provider core.TreeProvider
	clock    core.Clock
}

// New creates a new Runner.
func New(provider core.TreeProvider, cfg RunnerConfig) *Runner {
	return &Runner{
		config:   cfg,
		provider: provider,
		clock:    scheduler.SystemClock{},
	}
}

// Run evaluates every invocation of suite in order. Construction errors are
// recorded as errored results; they do not stop the suite.
func (r *Runner) Run(ctx context.Context, suite *invocation.Suite) (*core.SuiteResult, error) {
	if suite == nil {
		return nil, fmt.Errorf("suite is nil")
	}

	loop := scheduler.NewLoop(0)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(ctx)
	}()
	defer func() {
		loop.Stop()
		<-loopDone
	}()

	result := &core.SuiteResult{
		Name:      suite.Name,
		RunID:     uuid.NewString(),
		StartTime: r.clock.Now(),
		Results:   make([]core.AssertionResult, len(suite.Invocations)),
	}
	logger.Info("suite %q (%s): %d expectation(s)", result.Name, result.RunID, len(suite.Invocations))

	stop := ""
	for i, m := range suite.Invocations {
		if stop == "" && ctx.Err() != nil {
			stop = "run cancelled"
		}
		if stop != "" {
			result.Results[i] = core.AssertionResult{Index: i, Status: core.StatusSkipped, Message: stop}
			continue
		}

		res := r.runOne(ctx, loop, i, len(suite.Invocations), m)
		result.Results[i] = res
		if r.config.OnAssertionEnd != nil {
			r.config.OnAssertionEnd(res)
		}
		if r.config.StopOnFail && !res.Status.IsSuccess() {
			stop = "skipped after failure"
		}
	}

	result.Duration = r.clock.Now().Sub(result.StartTime)
	result.CalculateSummary()
	logger.Info("suite %q finished: %s (%d passed, %d failed, %d errored, %d skipped)",
		result.Name, result.Status, result.Passed, result.Failed, result.Errored, result.Skipped)
	return result, nil
}

func (r *Runner) runOne(ctx context.Context, loop *scheduler.Loop, idx, total int, m map[string]interface{}) core.AssertionResult {
	res := core.AssertionResult{Index: idx, StartTime: r.clock.Now(), Status: core.StatusRunning}

	exp, err := expectation.FromMap(r.withDefaultTimeout(m), r.config.Options)
	if err != nil {
		res.Status = core.StatusErrored
		res.Category = core.CategoryOf(err)
		res.Error = err.Error()
		res.Message = err.Error()
		logger.Error("expectation %d: %v", idx+1, err)
		return res
	}
	res.Kind = exp.Kind()
	res.Description = exp.Describe()
	if r.config.OnAssertionStart != nil {
		r.config.OnAssertionStart(idx, total, res.Description)
	}

	retrier := &expectation.Retrier{Clock: r.clock, Scheduler: loop, Interval: r.config.Interval}
	finished := make(chan core.AssertionResult, 1)
	loop.Post(func() {
		retrier.Run(exp, r.provider, func(o expectation.Outcome) {
			// Runs on the loop goroutine, so artifacts see the same tree owner.
			out := res
			out.Attempts = o.Attempts
			out.Duration = o.Elapsed
			out.Status = core.StatusForError(o.Err)
			if o.Err != nil {
				out.Category = core.CategoryOf(o.Err)
				out.Message = o.Err.Error()
				out.Error = rootCause(o.Err)
			}
			out.Attachments = r.capture(out.Status, core.TargetOf(o.Err))
			finished <- out
		})
	})

	select {
	case out := <-finished:
		return out
	case <-ctx.Done():
		res.Status = core.StatusSkipped
		res.Message = "run cancelled"
		res.Duration = r.clock.Now().Sub(res.StartTime)
		return res
	}
}

// withDefaultTimeout returns m with the configured timeout when it has none.
func (r *Runner) withDefaultTimeout(m map[string]interface{}) map[string]interface{} {
	if r.config.DefaultTimeout <= 0 || m == nil {
		return m
	}
	if v, ok := m[expectation.FieldTimeout]; ok && v != nil {
		return m
	}
	out := make(map[string]interface{}, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[expectation.FieldTimeout] = float64(r.config.DefaultTimeout) / float64(time.Millisecond)
	return out
}

// capture collects hierarchy and target artifacts from a fresh tree.
func (r *Runner) capture(status core.StepStatus, target core.Node) []core.Attachment {
	if r.config.Collector == nil || !r.config.Artifacts.ShouldCapture(status) {
		return nil
	}
	tree, err := r.provider.Tree()
	if err != nil {
		logger.Warn("artifact capture skipped: %v", err)
		return nil
	}

	var attachments []core.Attachment
	if r.config.Artifacts.UIHierarchy {
		if data, err := r.config.Collector.CaptureHierarchy(tree); err != nil {
			logger.Warn("capture hierarchy: %v", err)
		} else if data != nil {
			attachments = append(attachments, core.NewHierarchyAttachment("", data))
		}
	}
	if r.config.Artifacts.Target && target != nil {
		if data, err := r.config.Collector.CaptureTarget(tree, target); err != nil {
			logger.Warn("capture target: %v", err)
		} else if data != nil {
			attachments = append(attachments, core.NewTargetAttachment("", data))
		}
	}
	return attachments
}

// rootCause returns the message of the innermost wrapped error.
func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
