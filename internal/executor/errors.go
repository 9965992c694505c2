package executor

import (
	"errors"
	"fmt"

	"github.com/spachava753/tazk/internal/models"
)

var (
	// ErrNoTask is returned when neither a start task nor a default task is given.
	ErrNoTask = errors.New("no task specified and no default task configured")
	// ErrTaskNotFound is returned when the start task does not exist.
	ErrTaskNotFound = errors.New("task not found")
)

// TaskError describes a task whose command failed or could not be run.
type TaskError struct {
	Type     models.ErrorType
	Task     string
	Command  string
	ExitCode int
	Err      error
}

func (e *TaskError) Error() string {
	switch e.Type {
	case models.ErrCommandSpawnFailed:
		return fmt.Sprintf("task '%s' failed: command '%s' could not be started: %v", e.Task, e.Command, e.Err)
	case models.ErrCommandCancelled:
		return fmt.Sprintf("task '%s' cancelled: command '%s': %v", e.Task, e.Command, e.Err)
	default:
		return fmt.Sprintf("task '%s' failed: command '%s' exited with code %d", e.Task, e.Command, e.ExitCode)
	}
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// WatchError describes a watcher that could not be set up for a task.
type WatchError struct {
	Type models.ErrorType
	Task string
	Err  error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("task '%s': %v", e.Task, e.Err)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}
