// Package watch re-triggers work when files matching glob patterns change.
//
// A Watcher compiles its patterns, subscribes a Source to the directories the
// patterns live under, and runs a blocking loop. Every create, write, remove,
// rename or chmod event whose base-relative path matches a pattern is a
// candidate trigger. Candidates closer than the debounce window to the last
// accepted trigger, or to the start of the loop, are dropped. Accepted
// triggers run the callback synchronously on the watcher's goroutine, so a
// slow callback delays, but never overlaps, the next trigger.
//
// A Supervisor runs one Watcher per task on its own goroutine. Watchers are
// independent: two watchers may fire at the same time and race on shared
// files or ports. Nothing here arbitrates that.
package watch

import (
	"errors"
	"time"
)

var (
	// ErrSourceClosed is returned by Run when the event source stops delivering.
	ErrSourceClosed = errors.New("watch: notification channel closed")
	// ErrNoPatterns is returned when a watcher is configured without patterns.
	ErrNoPatterns = errors.New("watch: no patterns")
)

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
	// OpChmod indicates file permissions were changed.
	OpChmod
)

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// relevant reports whether the operation counts as a change. Metadata
// changes count.
func (op Op) relevant() bool {
	return op&(OpCreate|OpWrite|OpRemove|OpRename|OpChmod) != 0
}

func (op Op) String() string {
	switch {
	case op.Has(OpCreate):
		return "CREATE"
	case op.Has(OpWrite):
		return "WRITE"
	case op.Has(OpRemove):
		return "REMOVE"
	case op.Has(OpRename):
		return "RENAME"
	case op.Has(OpChmod):
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Event represents a file system change.
type Event struct {
	// Path as reported by the source; absolute or relative to the watcher's base.
	Path string
	Op   Op
	// Time the source observed the change. Zero means "now".
	Time time.Time
}

// Source delivers file system events for a set of directory trees.
type Source interface {
	// Add subscribes to dir and everything below it.
	Add(dir string) error
	// Events delivers change events. It is closed when the source stops.
	Events() <-chan Event
	// Errors delivers per-event problems that do not stop the source.
	Errors() <-chan error
	// Close stops the source and releases its resources.
	Close() error
}
