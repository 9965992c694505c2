package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spachava753/tazk/internal/environment"
	"github.com/spachava753/tazk/internal/events"
	"github.com/spachava753/tazk/internal/models"
	"golang.org/x/sync/errgroup"
)

// Engine runs the commands of a single task.
type Engine struct {
	env      environment.Environment
	observer events.Observer

	// Stdout and Stderr receive the output of every command unchanged.
	Stdout io.Writer
	Stderr io.Writer
	// WorkDir is the directory commands run in; empty means the current one.
	WorkDir string
}

// NewEngine creates an engine that runs commands in env and reports to obs.
// Command output is inherited from the current process.
func NewEngine(env environment.Environment, obs events.Observer) *Engine {
	if obs == nil {
		obs = events.Nop()
	}
	return &Engine{
		env:      env,
		observer: obs,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// RunTask runs every command of task. Under the concurrent policy, multiple
// commands start together and all of them are awaited before a failure is
// reported. Otherwise commands run in order and the first failure stops the
// rest. The returned error is a *TaskError naming the failing command.
func (e *Engine) RunTask(ctx context.Context, name string, task models.Task, globalConcurrent bool) error {
	cmds := task.Commands()
	concurrent := task.ConcurrentPolicy(globalConcurrent)

	events.Emit(ctx, e.observer, events.Event{Kind: events.TaskStarted, Task: name})
	slog.Debug("running task", "task", name, "commands", len(cmds), "concurrent", concurrent)

	var err error
	if concurrent && len(cmds) > 1 {
		err = e.runConcurrent(ctx, name, cmds, task.Env)
	} else {
		err = e.runSequential(ctx, name, cmds, task.Env)
	}

	if err != nil {
		ev := events.Event{Kind: events.TaskFailed, Task: name, Err: err}
		var taskErr *TaskError
		if errors.As(err, &taskErr) {
			ev.Command = taskErr.Command
		}
		events.Emit(ctx, e.observer, ev)
		return err
	}

	events.Emit(ctx, e.observer, events.Event{Kind: events.TaskSucceeded, Task: name})
	return nil
}

func (e *Engine) runSequential(ctx context.Context, name string, cmds []string, env map[string]string) error {
	for _, cmd := range cmds {
		if err := e.runCommand(ctx, name, cmd, env); err != nil {
			return err
		}
	}
	return nil
}

// runConcurrent waits for every command, then reports the failure of the
// earliest listed command that failed.
func (e *Engine) runConcurrent(ctx context.Context, name string, cmds []string, env map[string]string) error {
	errs := make([]error, len(cmds))

	var g errgroup.Group
	for i, cmd := range cmds {
		g.Go(func() error {
			errs[i] = e.runCommand(ctx, name, cmd, env)
			return errs[i]
		})
	}
	if g.Wait() == nil {
		return nil
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runCommand(ctx context.Context, name, cmd string, env map[string]string) error {
	events.Emit(ctx, e.observer, events.Event{Kind: events.CommandStarted, Task: name, Command: cmd})

	code, err := e.env.Exec(ctx, cmd, e.Stdout, e.Stderr, environment.ExecOptions{
		Env:     env,
		WorkDir: e.WorkDir,
	})
	switch {
	case err != nil && ctx.Err() != nil:
		return &TaskError{Type: models.ErrCommandCancelled, Task: name, Command: cmd, ExitCode: code, Err: err}
	case err != nil:
		return &TaskError{Type: models.ErrCommandSpawnFailed, Task: name, Command: cmd, ExitCode: code, Err: err}
	case code != 0:
		return &TaskError{Type: models.ErrCommandFailed, Task: name, Command: cmd, ExitCode: code}
	}

	slog.Debug("command finished", "task", name, "command", cmd)
	return nil
}
