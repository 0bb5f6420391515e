package expectation

import (
	"errors"

	"github.com/0xflotus/Detox/pkg/core"
)

// Evaluate makes one synchronous attempt against tree. It returns nil when the
// expectation holds. Failures are *core.ExecutionError values whose message
// embeds the rendered expectation; fatal categories (lookup, type mismatch)
// are preserved so callers can stop retrying.
func Evaluate(exp Expectation, tree core.Tree) error {
	holds, target, err := exp.evaluate(tree)
	if err != nil {
		return failure(exp, err, target)
	}
	if exp.Common().Mods.Apply(holds) {
		return nil
	}
	return core.ErrExpectationFailed.
		WithMessage("Failed expectation: " + exp.Describe()).
		WithTarget(target)
}

// failure re-labels err with the expectation description, keeping its
// category and code.
func failure(exp Expectation, err error, target core.Node) error {
	var ee *core.ExecutionError
	if !errors.As(err, &ee) {
		ee = core.ErrExpectationFailed
	}
	if target == nil {
		target = ee.Target
	}
	return &core.ExecutionError{
		Category: ee.Category,
		Code:     ee.Code,
		Message:  "Failed expectation: " + exp.Describe(),
		Details:  ee.Details,
		Cause:    err,
		Target:   target,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrElementNotFound)
}
