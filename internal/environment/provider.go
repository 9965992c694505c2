package environment

import (
	"context"
	"errors"
	"io"
)

// ErrSpawn marks failures to start a command at all, as opposed to a command
// that ran and exited non-zero.
var ErrSpawn = errors.New("failed to spawn command")

// Environment executes shell commands.
type Environment interface {
	// Name returns the environment name (e.g., "local").
	Name() string

	// Exec runs cmd through the platform shell, streaming stdout and stderr to
	// the provided writers. It returns the exit code; err is non-nil only when
	// the command could not be run to completion (spawn failure, cancellation).
	Exec(ctx context.Context, cmd string, stdout, stderr io.Writer, opts ExecOptions) (int, error)
}

// ExecOptions configures command execution.
type ExecOptions struct {
	// Env is overlaid on the inherited process environment. Entries here
	// add new variables or override inherited ones.
	Env     map[string]string
	WorkDir string
}
