package executor

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/spachava753/tazk/internal/config"
	"github.com/spachava753/tazk/internal/events"
	"github.com/spachava753/tazk/internal/graph"
	"github.com/spachava753/tazk/internal/models"
	"github.com/spachava753/tazk/internal/scheduler"
	"github.com/spachava753/tazk/internal/watch"
)

// Orchestrator drives a scheduled run: it runs the start task's dependency
// closure in order, arms a watcher after each watched task's first run, and
// keeps the process alive while watchers are armed.
type Orchestrator struct {
	tasks      models.TaskSet
	cfg        models.RunConfig
	engine     *Engine
	supervisor *watch.Supervisor
}

// NewOrchestrator creates an orchestrator over a validated task set. A nil
// supervisor uses native notifications with polling fallback.
func NewOrchestrator(tasks models.TaskSet, cfg models.RunConfig, engine *Engine, supervisor *watch.Supervisor) *Orchestrator {
	if supervisor == nil {
		supervisor = watch.NewSupervisor(engine.observer, watch.SourceOptions{})
	}
	return &Orchestrator{
		tasks:      tasks,
		cfg:        cfg,
		engine:     engine,
		supervisor: supervisor,
	}
}

// ResolveStart returns the task to start from: start when given, the
// configured default otherwise.
func (o *Orchestrator) ResolveStart(start string) (string, error) {
	if start == "" {
		start = o.cfg.Default
	}
	if start == "" {
		return "", ErrNoTask
	}
	if !o.tasks.Has(start) {
		return "", fmt.Errorf("%w: %s", ErrTaskNotFound, start)
	}
	return start, nil
}

// Run executes the run order of start. The first failing task aborts the run
// and its *TaskError is returned along with the partial result. When any
// watcher was armed, Run blocks until ctx is done and then returns once every
// watcher has stopped.
func (o *Orchestrator) Run(ctx context.Context, start string) (*models.RunResult, error) {
	name, err := o.ResolveStart(start)
	if err != nil {
		return nil, err
	}

	order := scheduler.RunOrderFrom(o.tasks, name)
	if err := o.checkPatterns(order); err != nil {
		return nil, err
	}

	runID := events.NewRunID()
	ctx = events.WithRunID(ctx, runID)
	result := &models.RunResult{
		RunID:     runID,
		StartTask: name,
		Order:     order,
		StartedAt: time.Now(),
	}

	watchCtx, cancelWatchers := context.WithCancel(ctx)
	defer func() {
		cancelWatchers()
		o.supervisor.Wait()
	}()

	slog.Debug("starting run", "run_id", runID, "task", name, "order", order)
	for _, taskName := range order {
		task, _ := o.tasks.Get(taskName)
		if err := o.engine.RunTask(ctx, taskName, task, o.cfg.Concurrent); err != nil {
			result.FailedTask = taskName
			finish(result)
			return result, err
		}
		result.Completed = append(result.Completed, taskName)

		if task.IsWatched() {
			if err := o.startWatcher(watchCtx, taskName, task); err != nil {
				slog.Error("watcher setup failed", "task", taskName, "error", err)
				events.Emit(ctx, o.engine.observer, events.Event{Kind: events.WatcherStopped, Task: taskName, Err: err})
				continue
			}
			result.Watched = append(result.Watched, taskName)
		}
	}
	finish(result)

	if len(result.Watched) == 0 {
		return result, nil
	}

	events.Emit(ctx, o.engine.observer, events.Event{Kind: events.RunIdleWaiting, Task: name})
	<-ctx.Done()
	slog.Debug("run cancelled, stopping watchers", "run_id", runID, "watchers", o.supervisor.Active())
	return result, nil
}

// checkPatterns compiles every watch pattern in order so that an invalid
// pattern fails the run before any command executes.
func (o *Orchestrator) checkPatterns(order []string) error {
	for _, taskName := range order {
		task, _ := o.tasks.Get(taskName)
		if !task.IsWatched() {
			continue
		}
		if _, err := watch.CompilePatterns(task.Watch); err != nil {
			return &WatchError{Type: models.ErrPatternInvalid, Task: taskName, Err: err}
		}
	}
	return nil
}

func (o *Orchestrator) startWatcher(ctx context.Context, name string, task models.Task) error {
	cfg := watch.Config{
		Task:     name,
		Patterns: task.Watch,
		Debounce: time.Duration(task.WatchDebounce) * time.Millisecond,
		Dir:      o.engine.WorkDir,
	}
	err := o.supervisor.Start(ctx, cfg, func(ctx context.Context) {
		o.rerun(ctx, name, task)
	})
	if err != nil {
		return &WatchError{Type: models.ErrWatchSetupFailed, Task: name, Err: err}
	}
	return nil
}

// rerun runs a watched task after a change and, when it propagates, each of
// its dependents in topological order. A failure ends this cascade only.
func (o *Orchestrator) rerun(ctx context.Context, name string, task models.Task) {
	ctx = events.WithRunID(ctx, events.NewRunID())

	if err := o.engine.RunTask(ctx, name, task, o.cfg.Concurrent); err != nil {
		slog.Debug("triggered run failed", "task", name, "error", err)
		return
	}
	if !task.WatchPropagate {
		return
	}

	for _, dependent := range scheduler.DependentsOrder(o.tasks, name) {
		if ctx.Err() != nil {
			return
		}
		events.Emit(ctx, o.engine.observer, events.Event{Kind: events.DependencyPropagated, Task: dependent})
		depTask, _ := o.tasks.Get(dependent)
		if err := o.engine.RunTask(ctx, dependent, depTask, o.cfg.Concurrent); err != nil {
			slog.Debug("propagated run failed", "task", dependent, "source", name, "error", err)
			return
		}
	}
}

func finish(result *models.RunResult) {
	result.EndedAt = time.Now()
	result.DurationSec = result.EndedAt.Sub(result.StartedAt).Seconds()
}

// LoadTasks loads and validates a tasks file. Validation failures are
// returned as graph.ValidationErrors.
func LoadTasks(fsys fs.FS, name string) (models.TasksFile, error) {
	file, err := config.LoadTasksFile(fsys, name)
	if err != nil {
		return models.TasksFile{}, fmt.Errorf("loading tasks file: %w", err)
	}

	if errs := graph.Validate(file.Entries); len(errs) > 0 {
		return models.TasksFile{}, graph.ValidationErrors(errs)
	}
	return file, nil
}

// RunFromFile loads and validates a tasks file, then runs start. Nothing
// executes when validation fails.
func RunFromFile(ctx context.Context, fsys fs.FS, name, start string, engine *Engine, supervisor *watch.Supervisor) (*models.RunResult, error) {
	file, err := LoadTasks(fsys, name)
	if err != nil {
		return nil, err
	}
	return NewOrchestrator(file.TaskSet(), file.Config, engine, supervisor).Run(ctx, start)
}
