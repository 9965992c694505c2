package graph

import (
	"fmt"
	"strings"

	"github.com/spachava753/tazk/internal/models"
)

// ValidationError is one structural problem found in the task graph. Which
// fields are set depends on Type.
type ValidationError struct {
	Type  models.ErrorType
	Task  string
	Dep   string   // ErrMissingDependency only
	Cycle []string // ErrCyclicDependency only; the first element implicitly follows the last
}

func (e ValidationError) Error() string {
	switch e.Type {
	case models.ErrDuplicateTask:
		return fmt.Sprintf("duplicated task name: %s", e.Task)
	case models.ErrMissingDependency:
		return fmt.Sprintf("task '%s' has a missing dependency: '%s'", e.Task, e.Dep)
	case models.ErrEmptyCommand:
		return fmt.Sprintf("task '%s' has an empty command", e.Task)
	case models.ErrSelfDependency:
		return fmt.Sprintf("task '%s' has a self-dependency", e.Task)
	case models.ErrCyclicDependency:
		if len(e.Cycle) == 0 {
			return "cyclic dependency detected"
		}
		path := append(append([]string{}, e.Cycle...), e.Cycle[0])
		return fmt.Sprintf("cyclic dependency detected: %s", strings.Join(path, " → "))
	default:
		return fmt.Sprintf("%s: %s", e.Type, e.Task)
	}
}

// ValidationErrors collects every finding of a validation pass.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(errs), strings.Join(msgs, "; "))
}

func duplicateTask(name string) ValidationError {
	return ValidationError{Type: models.ErrDuplicateTask, Task: name}
}

func missingDependency(task, dep string) ValidationError {
	return ValidationError{Type: models.ErrMissingDependency, Task: task, Dep: dep}
}

func emptyCommand(task string) ValidationError {
	return ValidationError{Type: models.ErrEmptyCommand, Task: task}
}

func selfDependency(task string) ValidationError {
	return ValidationError{Type: models.ErrSelfDependency, Task: task}
}

func cyclicDependency(cycle []string) ValidationError {
	return ValidationError{Type: models.ErrCyclicDependency, Task: cycle[0], Cycle: cycle}
}
