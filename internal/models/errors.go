package models

// ErrorType identifies the category of error that occurred.
type ErrorType string

const (
	// Graph validation
	ErrDuplicateTask     ErrorType = "duplicate_task"
	ErrMissingDependency ErrorType = "missing_dependency"
	ErrEmptyCommand      ErrorType = "empty_command"
	ErrSelfDependency    ErrorType = "self_dependency"
	ErrCyclicDependency  ErrorType = "cyclic_dependency"

	// Execution
	ErrCommandFailed      ErrorType = "command_failed"
	ErrCommandSpawnFailed ErrorType = "command_spawn_failed"
	ErrCommandCancelled   ErrorType = "command_cancelled"

	// Watching
	ErrPatternInvalid     ErrorType = "pattern_invalid"
	ErrWatchSetupFailed   ErrorType = "watch_setup_failed"
	ErrWatchChannelFailed ErrorType = "watch_channel_failed"

	// Pre-execution
	ErrTaskNotFound ErrorType = "task_not_found"
	ErrNoTask       ErrorType = "no_task"
)
