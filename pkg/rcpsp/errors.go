package rcpsp

import (
	"errors"
	"fmt"
)

// InvalidProjectError reports a structural problem detected while
// building a ProjectIndex: a cycle, a dangling task/resource id, a
// negative value, a missing source/sink invariant, or a task whose
// resource requirement exceeds that resource's capacity. It is fatal
// for the run that produced it.
type InvalidProjectError struct {
	Reason string
}

func (e *InvalidProjectError) Error() string {
	return "rcpsp: invalid project: " + e.Reason
}

// IsInvalidProject reports whether err (or one it wraps) is an
// InvalidProjectError.
func IsInvalidProject(err error) bool {
	var target *InvalidProjectError
	return errors.As(err, &target)
}

func invalidProjectf(format string, args ...any) error {
	return &InvalidProjectError{Reason: fmt.Sprintf(format, args...)}
}
