package expectation

import (
	"time"

	"github.com/google/uuid"

	"github.com/0xflotus/Detox/pkg/core"
	"github.com/0xflotus/Detox/pkg/logger"
)

// DefaultInterval is the delay between attempts.
const DefaultInterval = 100 * time.Millisecond

// Outcome is the terminal result of a retried expectation.
type Outcome struct {
	Err      error // nil on success
	Attempts int
	Elapsed  time.Duration
	RunID    string // correlates log lines of one run
}

// Retrier polls expectations on a scheduler until they hold or time out.
// Clock and Scheduler must belong to the goroutine that owns the tree.
type Retrier struct {
	Clock     core.Clock
	Scheduler core.Scheduler
	Interval  time.Duration // zero uses DefaultInterval
}

// EvaluateWithRetry polls exp with the default interval. See Retrier.Run.
func EvaluateWithRetry(exp Expectation, provider core.TreeProvider, clock core.Clock, sched core.Scheduler, done func(Outcome)) {
	r := &Retrier{Clock: clock, Scheduler: sched}
	r.Run(exp, provider, done)
}

type runState int

const (
	stateAttempting runState = iota
	stateDone
)

type run struct {
	retrier  *Retrier
	exp      Expectation
	provider core.TreeProvider
	done     func(Outcome)

	id       string
	start    time.Time
	attempts int
	state    runState
}

// Run evaluates exp until it holds, fails fatally, or its timeout elapses, then
// calls done exactly once. Each attempt fetches a fresh tree from provider.
// With a zero timeout exactly one attempt is made and done is called before
// Run returns. Otherwise later attempts are deferred through the scheduler and
// never overlap.
func (r *Retrier) Run(exp Expectation, provider core.TreeProvider, done func(Outcome)) {
	ru := &run{
		retrier:  r,
		exp:      exp,
		provider: provider,
		done:     done,
		id:       uuid.NewString(),
		start:    r.Clock.Now(),
		state:    stateAttempting,
	}
	logger.Debug("[%s] evaluating %s", ru.id, exp.Describe())
	ru.step()
}

func (r *Retrier) interval() time.Duration {
	if r.Interval > 0 {
		return r.Interval
	}
	return DefaultInterval
}

func (ru *run) step() {
	if ru.state == stateDone {
		return
	}

	ru.attempts++
	err := ru.attempt()
	elapsed := ru.retrier.Clock.Now().Sub(ru.start)
	timeout := ru.exp.Common().Timeout

	switch {
	case err == nil:
		logger.Debug("[%s] passed after %d attempt(s)", ru.id, ru.attempts)
		ru.finish(nil, elapsed)
	case core.IsFatal(err):
		logger.Error("[%s] %v", ru.id, err)
		ru.finish(err, elapsed)
	case timeout == 0:
		ru.finish(err, elapsed)
	case elapsed < timeout:
		logger.Debug("[%s] attempt %d failed, retrying: %v", ru.id, ru.attempts, err)
		ru.retrier.Scheduler.After(ru.retrier.interval(), ru.step)
	default:
		logger.Warn("[%s] timed out after %s (%d attempts)", ru.id, elapsed, ru.attempts)
		ru.finish(ru.timeoutError(err, elapsed), elapsed)
	}
}

func (ru *run) attempt() error {
	tree, err := ru.provider.Tree()
	if err != nil {
		return core.ErrTreeUnavailable.
			WithMessage("Failed expectation: " + ru.exp.Describe()).
			WithCause(err)
	}
	return Evaluate(ru.exp, tree)
}

func (ru *run) timeoutError(last error, elapsed time.Duration) error {
	return core.ErrTimeout.
		WithMessage("Timed out while waiting for expectation: " + ru.exp.Describe()).
		WithCause(last).
		WithTarget(core.TargetOf(last)).
		WithDetails(map[string]interface{}{
			"elapsed":  elapsed,
			"attempts": ru.attempts,
			"runId":    ru.id,
		})
}

func (ru *run) finish(err error, elapsed time.Duration) {
	ru.state = stateDone
	ru.done(Outcome{Err: err, Attempts: ru.attempts, Elapsed: elapsed, RunID: ru.id})
}
