// Package events defines the semantic events emitted while tasks run and
// watchers fire, and the observers that consume them.
//
// The engine never formats output itself. It reports what happened to an
// injected Observer; rendering, coloring and logging belong to observers.
// Observers are called from the scheduled run and from every watcher
// goroutine, so implementations must be safe for concurrent use.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind identifies an event.
type Kind string

const (
	TaskStarted          Kind = "task_started"
	CommandStarted       Kind = "command_started"
	TaskSucceeded        Kind = "task_succeeded"
	TaskFailed           Kind = "task_failed"
	WatcherArmed         Kind = "watcher_armed"
	WatcherStopped       Kind = "watcher_stopped"
	FileChangeDetected   Kind = "file_change_detected"
	DependencyPropagated Kind = "dependency_propagated"
	RunIdleWaiting       Kind = "run_idle_waiting"
)

// Event is a single observation. Only the fields relevant to Kind are set.
type Event struct {
	Kind     Kind
	Time     time.Time
	RunID    string
	Task     string
	Command  string
	Path     string
	Pattern  string
	Dirs     []string
	Patterns []string
	Err      error
}

// Observer receives events.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Notify(e Event) { f(e) }

// Nop returns an observer that discards every event.
func Nop() Observer {
	return ObserverFunc(func(Event) {})
}

type multi []Observer

func (m multi) Notify(e Event) {
	for _, o := range m {
		o.Notify(e)
	}
}

// Multi fans every event out to all given observers, in order.
func Multi(observers ...Observer) Observer {
	out := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// Emit stamps e with the current time and the run id carried by ctx, then
// hands it to o.
func Emit(ctx context.Context, o Observer, e Event) {
	if o == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.RunID == "" {
		e.RunID = RunID(ctx)
	}
	o.Notify(e)
}

type runIDKey struct{}

// NewRunID returns a fresh identifier for a run or a watch-triggered rerun.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID returns a context carrying the given run id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id carried by ctx, or "" if there is none.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Recorder is an Observer that keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the recorded event kinds, optionally restricted to one task.
func (r *Recorder) Kinds(task string) []Kind {
	var kinds []Kind
	for _, e := range r.Events() {
		if task == "" || e.Task == task {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}
