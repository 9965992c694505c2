package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spachava753/tazk/internal/events"
)

// TriggerFunc is called for every accepted change. It runs on the watcher's
// goroutine; the next event is not examined until it returns.
type TriggerFunc func(ctx context.Context)

// Config describes one task's watcher.
type Config struct {
	Task     string
	Patterns []string
	Debounce time.Duration
	// Dir is the directory patterns are relative to. Empty means the
	// process working directory.
	Dir string
}

// Watcher filters a Source's events through glob patterns and a debounce
// window and invokes a trigger for what remains.
type Watcher struct {
	task     string
	patterns []Pattern
	dirs     []string
	source   Source
	observer events.Observer
	base     string
	debounce debouncer
}

// New compiles cfg's patterns and subscribes source to the directories they
// live under. The caller keeps ownership of source.
func New(cfg Config, source Source, obs events.Observer) (*Watcher, error) {
	patterns, err := CompilePatterns(cfg.Patterns)
	if err != nil {
		return nil, err
	}

	base, err := resolveBase(cfg.Dir)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		task:     cfg.Task,
		patterns: patterns,
		dirs:     WatchDirs(patterns),
		source:   source,
		observer: obs,
		base:     base,
		debounce: debouncer{window: cfg.Debounce},
	}
	for _, dir := range w.dirs {
		if err := source.Add(filepath.Join(base, dir)); err != nil {
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return w, nil
}

func resolveBase(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
		return cwd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	return abs, nil
}

// Dirs returns the directories the watcher monitors, relative to its base.
func (w *Watcher) Dirs() []string {
	return w.dirs
}

// Run processes events until ctx is done or the source's event channel
// closes. It returns ctx.Err() on cancellation and ErrSourceClosed when the
// source stops. Errors reported by the source are logged and skipped. The
// debounce window starts when Run does.
func (w *Watcher) Run(ctx context.Context, onTrigger TriggerFunc) error {
	w.debounce.reset(time.Now())
	errs := w.source.Errors()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.source.Events():
			if !ok {
				return ErrSourceClosed
			}
			w.handle(ctx, ev, onTrigger)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watch error", "task", w.task, "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev Event, onTrigger TriggerFunc) {
	if !ev.Op.relevant() {
		return
	}

	rel := relativePath(ev.Path, w.base)
	pattern, ok := matchAny(w.patterns, rel)
	if !ok {
		return
	}

	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}
	if !w.debounce.accept(at) {
		slog.Debug("change debounced", "task", w.task, "path", rel, "op", ev.Op.String())
		return
	}
	if ctx.Err() != nil {
		return
	}

	events.Emit(ctx, w.observer, events.Event{
		Kind:    events.FileChangeDetected,
		Task:    w.task,
		Path:    rel,
		Pattern: pattern.String(),
	})
	onTrigger(ctx)
}

// debouncer accepts a trigger only when at least window has passed since the
// last accepted one, or since reset.
type debouncer struct {
	window time.Duration
	last   time.Time
}

func (d *debouncer) reset(at time.Time) {
	d.last = at
}

func (d *debouncer) accept(at time.Time) bool {
	if at.Sub(d.last) < d.window {
		return false
	}
	d.last = at
	return true
}
