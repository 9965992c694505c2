package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spachava753/tazk/internal/events"
)

// SourceOptions selects how file changes are detected.
type SourceOptions struct {
	// Poll forces the polling source even when native notifications work.
	Poll bool
	// PollInterval overrides DefaultPollInterval.
	PollInterval time.Duration
}

// NewSource returns a native notification source, falling back to polling
// when native notifications are unavailable or opts.Poll is set.
func NewSource(opts SourceOptions) (Source, error) {
	if opts.Poll {
		return NewPollSource(opts.PollInterval), nil
	}
	src, err := NewFSNotifySource()
	if err != nil {
		slog.Warn("native file notifications unavailable, falling back to polling", "error", err)
		return NewPollSource(opts.PollInterval), nil
	}
	return src, nil
}

// Watch arms a single watcher on a fresh source and blocks until ctx is done
// or the source stops.
func Watch(ctx context.Context, cfg Config, opts SourceOptions, obs events.Observer, onTrigger TriggerFunc) error {
	src, err := NewSource(opts)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := New(cfg, src, obs)
	if err != nil {
		return err
	}
	return w.Run(ctx, onTrigger)
}

// Supervisor runs independent watchers, one goroutine each.
type Supervisor struct {
	observer  events.Observer
	newSource func() (Source, error)

	wg     sync.WaitGroup
	active atomic.Int32
}

// NewSupervisor creates a supervisor whose watchers use sources built from opts.
func NewSupervisor(obs events.Observer, opts SourceOptions) *Supervisor {
	return NewSupervisorWithSource(obs, func() (Source, error) {
		return NewSource(opts)
	})
}

// NewSupervisorWithSource creates a supervisor with a custom source factory.
func NewSupervisorWithSource(obs events.Observer, newSource func() (Source, error)) *Supervisor {
	if obs == nil {
		obs = events.Nop()
	}
	return &Supervisor{observer: obs, newSource: newSource}
}

// Start arms a watcher for cfg and runs it until ctx is done. Setup failures
// are returned and leave other watchers untouched. A watcher that stops on
// its own emits WatcherStopped.
func (s *Supervisor) Start(ctx context.Context, cfg Config, onTrigger TriggerFunc) error {
	src, err := s.newSource()
	if err != nil {
		return err
	}
	w, err := New(cfg, src, s.observer)
	if err != nil {
		_ = src.Close()
		return err
	}

	events.Emit(ctx, s.observer, events.Event{
		Kind:     events.WatcherArmed,
		Task:     cfg.Task,
		Dirs:     w.Dirs(),
		Patterns: cfg.Patterns,
	})

	s.active.Add(1)
	s.wg.Go(func() {
		defer s.active.Add(-1)
		defer src.Close()

		err := w.Run(ctx, onTrigger)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return
		}
		slog.Warn("watcher stopped", "task", cfg.Task, "error", err)
		events.Emit(ctx, s.observer, events.Event{
			Kind: events.WatcherStopped,
			Task: cfg.Task,
			Err:  err,
		})
	})
	return nil
}

// Active returns the number of running watchers.
func (s *Supervisor) Active() int {
	return int(s.active.Load())
}

// Wait blocks until every watcher has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
