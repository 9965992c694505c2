package events

import (
	"context"
	"log/slog"
)

// SlogObserver mirrors events into structured logs. Failures are logged at
// error level, watcher terminations at warn, everything else at debug.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates an observer writing to logger, or to the default
// logger when logger is nil.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) Notify(e Event) {
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{slog.String("event", string(e.Kind))}
	if e.RunID != "" {
		attrs = append(attrs, slog.String("run_id", e.RunID))
	}
	if e.Task != "" {
		attrs = append(attrs, slog.String("task", e.Task))
	}
	if e.Command != "" {
		attrs = append(attrs, slog.String("command", e.Command))
	}
	if e.Path != "" {
		attrs = append(attrs, slog.String("path", e.Path), slog.String("pattern", e.Pattern))
	}
	if len(e.Dirs) > 0 {
		attrs = append(attrs, slog.Any("dirs", e.Dirs), slog.Any("patterns", e.Patterns))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("error", e.Err))
	}

	level := slog.LevelDebug
	switch e.Kind {
	case TaskFailed:
		level = slog.LevelError
	case WatcherStopped:
		level = slog.LevelWarn
	}

	logger.LogAttrs(context.Background(), level, "tazk event", attrs...)
}
