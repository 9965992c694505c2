package events_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/spachava753/tazk/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitStampsRunID(t *testing.T) {
	rec := &events.Recorder{}
	id := events.NewRunID()
	ctx := events.WithRunID(context.Background(), id)

	events.Emit(ctx, rec, events.Event{Kind: events.TaskStarted, Task: "build"})

	got := rec.Events()
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].RunID)
	assert.False(t, got[0].Time.IsZero())
	assert.Equal(t, "", events.RunID(context.Background()))
}

func TestMultiFansOutInOrder(t *testing.T) {
	var order []string
	first := events.ObserverFunc(func(events.Event) { order = append(order, "first") })
	second := events.ObserverFunc(func(events.Event) { order = append(order, "second") })

	events.Multi(first, nil, second).Notify(events.Event{Kind: events.RunIdleWaiting})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestConsoleRendersEvents(t *testing.T) {
	var out, errOut bytes.Buffer
	console := events.NewConsole(&out, &errOut)

	console.Notify(events.Event{Kind: events.TaskStarted, Task: "build"})
	console.Notify(events.Event{Kind: events.CommandStarted, Task: "build", Command: "go build ./..."})
	console.Notify(events.Event{Kind: events.WatcherArmed, Task: "build", Dirs: []string{"src"}, Patterns: []string{"src/*.go"}})
	console.Notify(events.Event{Kind: events.FileChangeDetected, Path: "src/main.go", Pattern: "src/*.go"})
	console.Notify(events.Event{Kind: events.DependencyPropagated, Task: "test"})
	console.Notify(events.Event{Kind: events.TaskFailed, Task: "build", Err: errors.New("exit status 2")})

	stdout := out.String()
	assert.Contains(t, stdout, "running task:")
	assert.Contains(t, stdout, "go build ./...")
	assert.Contains(t, stdout, "watching directory:")
	assert.Contains(t, stdout, "src/main.go")
	assert.Contains(t, stdout, "propagating to dependent task:")
	assert.Contains(t, errOut.String(), "exit status 2")
	assert.NotContains(t, stdout, "exit status 2")
}

func TestConsoleTaskList(t *testing.T) {
	var out bytes.Buffer
	console := events.NewConsole(&out, &out)

	console.TaskList([]events.TaskItem{
		{Name: "build", Desc: "compile the code"},
		{Name: "test", Cache: true},
	})

	assert.Contains(t, out.String(), "available tasks:")
	assert.Contains(t, out.String(), "compile the code")
	assert.Contains(t, out.String(), "(cache)")
}

func TestSlogObserverLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	obs := events.NewSlogObserver(logger)

	obs.Notify(events.Event{Kind: events.TaskStarted, Task: "quiet"})
	obs.Notify(events.Event{Kind: events.TaskFailed, Task: "loud", Command: "false", Err: errors.New("boom")})

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), `"task":"loud"`)
	assert.Contains(t, buf.String(), `"event":"task_failed"`)
}

func TestRecorderConcurrentUse(t *testing.T) {
	rec := &events.Recorder{}
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 50 {
				rec.Notify(events.Event{Kind: events.FileChangeDetected})
			}
		})
	}
	wg.Wait()

	assert.Len(t, rec.Kinds(""), 400)
}
