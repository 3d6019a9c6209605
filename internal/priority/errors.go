package priority

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStrategy is returned when strategy weights are missing, negative,
	// non-finite or sum to zero.
	ErrInvalidStrategy = errors.New("invalid strategy")
	// ErrUnknownStrategy is returned when a preset name does not exist.
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrInvalidTask is returned when a task in the collection cannot be scored.
	ErrInvalidTask = errors.New("invalid task")
)

// TaskError wraps a failure attributable to one task of the collection.
type TaskError struct {
	Kind   error
	TaskID string
	Msg    string
}

func (e *TaskError) Error() string {
	if e == nil {
		return ""
	}
	if e.TaskID == "" {
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
	}
	return fmt.Sprintf("%s %q: %s", e.Kind.Error(), e.TaskID, e.Msg)
}

func (e *TaskError) Unwrap() error { return e.Kind }

func invalidTask(id, format string, args ...any) error {
	return &TaskError{Kind: ErrInvalidTask, TaskID: id, Msg: fmt.Sprintf(format, args...)}
}

func invalidStrategy(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidStrategy, fmt.Sprintf(format, args...))
}
