package executor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spachava753/tazk/internal/events"
	"github.com/spachava753/tazk/internal/executor"
	"github.com/spachava753/tazk/internal/graph"
	"github.com/spachava753/tazk/internal/models"
	"github.com/spachava753/tazk/internal/watch"
)

func entry(name string, task models.Task) models.TaskEntry {
	return models.TaskEntry{Name: name, Task: task}
}

func shell(cmd string, deps ...string) models.Task {
	return models.Task{Cmd: models.SingleCommand(cmd), Deps: deps, WatchDebounce: models.DefaultWatchDebounceMs}
}

// chanSource is a watch.Source fed by the test.
type chanSource struct {
	events    chan watch.Event
	closeOnce sync.Once
}

func newChanSource() *chanSource {
	return &chanSource{events: make(chan watch.Event, 16)}
}

func (s *chanSource) Add(string) error           { return nil }
func (s *chanSource) Events() <-chan watch.Event { return s.events }
func (s *chanSource) Errors() <-chan error       { return nil }
func (s *chanSource) Close() error {
	s.closeOnce.Do(func() { close(s.events) })
	return nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunBuildThenTest(t *testing.T) {
	skipOnWindows(t)
	engine, _, dir := newTestEngine(t)

	tasks := models.NewTaskSet([]models.TaskEntry{
		entry("test", shell("echo test >> log.txt", "build")),
		entry("build", shell("echo build >> log.txt")),
		entry("unrelated", shell("echo unrelated >> log.txt")),
	})

	result, err := executor.NewOrchestrator(tasks, models.RunConfig{}, engine, nil).Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if diff := cmp.Diff([]string{"build", "test"}, result.Order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if !result.Succeeded() {
		t.Errorf("expected success, got %+v", result)
	}
	if result.RunID == "" {
		t.Error("expected a run id")
	}
	if got := readFile(t, dir, "log.txt"); got != "build\ntest\n" {
		t.Errorf("unexpected execution log %q", got)
	}
}

func TestRunFailFast(t *testing.T) {
	skipOnWindows(t)
	engine, rec, dir := newTestEngine(t)

	tasks := models.NewTaskSet([]models.TaskEntry{
		entry("a", shell("echo a >> log.txt")),
		entry("b", shell("exit 4", "a")),
		entry("c", shell("echo c >> log.txt", "b")),
	})

	result, err := executor.NewOrchestrator(tasks, models.RunConfig{Default: "c"}, engine, nil).Run(context.Background(), "")

	var taskErr *executor.TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected TaskError, got %v", err)
	}
	if taskErr.Task != "b" || taskErr.Command != "exit 4" || taskErr.ExitCode != 4 {
		t.Errorf("unexpected task error: %+v", taskErr)
	}
	if result.FailedTask != "b" {
		t.Errorf("expected failed task b, got %q", result.FailedTask)
	}
	if diff := cmp.Diff([]string{"a"}, result.Completed); diff != "" {
		t.Errorf("completed mismatch (-want +got):\n%s", diff)
	}
	if got := readFile(t, dir, "log.txt"); got != "a\n" {
		t.Errorf("tasks after the failure ran: %q", got)
	}
	if len(rec.Kinds("c")) != 0 {
		t.Errorf("expected no events for c, got %v", rec.Kinds("c"))
	}
}

func TestResolveStart(t *testing.T) {
	tasks := models.NewTaskSet([]models.TaskEntry{entry("build", shell("true"))})
	engine := executor.NewEngine(nil, nil)

	tests := []struct {
		name    string
		cfg     models.RunConfig
		start   string
		want    string
		wantErr error
	}{
		{"explicit", models.RunConfig{Default: "other"}, "build", "build", nil},
		{"default", models.RunConfig{Default: "build"}, "", "build", nil},
		{"none", models.RunConfig{}, "", "", executor.ErrNoTask},
		{"unknown", models.RunConfig{}, "ghost", "", executor.ErrTaskNotFound},
		{"unknown default", models.RunConfig{Default: "ghost"}, "", "", executor.ErrTaskNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := executor.NewOrchestrator(tasks, tt.cfg, engine, nil).ResolveStart(tt.start)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ResolveStart(%q) error = %v, want %v", tt.start, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveStart(%q) = %q, want %q", tt.start, got, tt.want)
			}
		})
	}
}

func TestRunRejectsInvalidPatternBeforeExecuting(t *testing.T) {
	skipOnWindows(t)
	engine, rec, _ := newTestEngine(t)

	watched := shell("true", "build")
	watched.Watch = []string{"src/[oops"}
	tasks := models.NewTaskSet([]models.TaskEntry{
		entry("build", shell("true")),
		entry("dev", watched),
	})

	_, err := executor.NewOrchestrator(tasks, models.RunConfig{}, engine, nil).Run(context.Background(), "dev")

	var watchErr *executor.WatchError
	if !errors.As(err, &watchErr) || watchErr.Type != models.ErrPatternInvalid || watchErr.Task != "dev" {
		t.Fatalf("expected pattern error for dev, got %v", err)
	}
	if evs := rec.Events(); len(evs) != 0 {
		t.Errorf("expected nothing to run, got %d events", len(evs))
	}
}

func TestRunWatchTriggersAndPropagates(t *testing.T) {
	skipOnWindows(t)
	engine, rec, dir := newTestEngine(t)

	src := newChanSource()
	supervisor := watch.NewSupervisorWithSource(rec, func() (watch.Source, error) { return src, nil })

	gen := shell("echo gen >> log.txt")
	gen.Watch = []string{"src/*.txt"}
	gen.WatchPropagate = true
	gen.WatchDebounce = 0
	tasks := models.NewTaskSet([]models.TaskEntry{
		entry("gen", gen),
		entry("app", shell("echo app >> log.txt", "gen")),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		result *models.RunResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := executor.NewOrchestrator(tasks, models.RunConfig{}, engine, supervisor).Run(ctx, "app")
		done <- outcome{result, err}
	}()

	hasKind := func(kind events.Kind) func() bool {
		return func() bool {
			for _, e := range rec.Events() {
				if e.Kind == kind {
					return true
				}
			}
			return false
		}
	}
	waitFor(t, "idle wait", hasKind(events.RunIdleWaiting))

	src.events <- watch.Event{Path: "src/input.txt", Op: watch.OpWrite}
	waitFor(t, "propagated rerun", func() bool {
		return readFile(t, dir, "log.txt") == "gen\napp\ngen\napp\n"
	})

	cancel()
	select {
	case out := <-done:
		if out.err != nil {
			t.Fatalf("Run returned error after cancel: %v", out.err)
		}
		if diff := cmp.Diff([]string{"gen"}, out.result.Watched); diff != "" {
			t.Errorf("watched mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if !hasKind(events.DependencyPropagated)() {
		t.Error("expected a dependency propagation event")
	}

	var initialRun, rerun string
	for _, e := range rec.Events() {
		if e.Kind != events.TaskStarted || e.Task != "gen" {
			continue
		}
		if initialRun == "" {
			initialRun = e.RunID
		} else {
			rerun = e.RunID
		}
	}
	if initialRun == "" || rerun == "" || initialRun == rerun {
		t.Errorf("expected distinct run ids for initial run and rerun, got %q and %q", initialRun, rerun)
	}
}

func TestRunFromFileWatchesRelativeToTasksDir(t *testing.T) {
	skipOnWindows(t)
	engine, rec, dir := newTestEngine(t)
	if err := os.Mkdir(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatalf("creating src: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tasks.toml"), []byte(`[tasks.gen]
cmd = "echo gen >> log.txt"
watch = ["src/*.txt"]
watch_debounce = 0
`), 0o644); err != nil {
		t.Fatalf("writing tasks file: %v", err)
	}

	supervisor := watch.NewSupervisor(rec, watch.SourceOptions{Poll: true, PollInterval: 20 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := executor.RunFromFile(ctx, os.DirFS(dir), "tasks.toml", "gen", engine, supervisor)
		done <- err
	}()

	waitFor(t, "idle wait", func() bool {
		for _, e := range rec.Events() {
			if e.Kind == events.RunIdleWaiting {
				return true
			}
		}
		return false
	})
	if kinds := rec.Kinds("gen"); slices.Contains(kinds, events.WatcherStopped) {
		t.Fatalf("watcher failed to start: %v", kinds)
	}

	if err := os.WriteFile(filepath.Join(dir, "src", "input.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("writing input: %v", err)
	}
	waitFor(t, "rerun", func() bool {
		return readFile(t, dir, "log.txt") == "gen\ngen\n"
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunFromFile returned error after cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunFromFile did not return after cancel")
	}
}

func TestRunFromFile(t *testing.T) {
	skipOnWindows(t)

	t.Run("cycle", func(t *testing.T) {
		engine, rec, _ := newTestEngine(t)
		fsys := fstest.MapFS{"tasks.yaml": &fstest.MapFile{Data: []byte(`tasks:
  a:
    cmd: echo a
    deps: [b]
  b:
    cmd: echo b
    deps: [a]
`)}}

		_, err := executor.RunFromFile(context.Background(), fsys, "tasks.yaml", "a", engine, nil)

		var verrs graph.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("expected validation errors, got %v", err)
		}
		if len(verrs) != 1 || verrs[0].Type != models.ErrCyclicDependency {
			t.Fatalf("expected a single cycle, got %v", verrs)
		}
		if len(rec.Events()) != 0 {
			t.Error("expected nothing to run on an invalid graph")
		}
	})

	t.Run("valid", func(t *testing.T) {
		engine, _, dir := newTestEngine(t)
		fsys := fstest.MapFS{"tasks.toml": &fstest.MapFile{Data: []byte(`[config]
default = "test"

[tasks.build]
cmd = "echo build >> log.txt"

[tasks.test]
cmd = "echo test >> log.txt"
deps = ["build"]
`)}}

		result, err := executor.RunFromFile(context.Background(), fsys, "tasks.toml", "", engine, nil)
		if err != nil {
			t.Fatalf("RunFromFile failed: %v", err)
		}
		if result.StartTask != "test" {
			t.Errorf("expected default task test, got %q", result.StartTask)
		}
		if got := readFile(t, dir, "log.txt"); got != "build\ntest\n" {
			t.Errorf("unexpected execution log %q", got)
		}
	})
}
