package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const bufferSize = 100

// FSNotifySource is a Source backed by the operating system's native file
// notifications. Directories created under a watched tree are watched too.
type FSNotifySource struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	paths   map[string]bool

	events chan Event
	errors chan error

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewFSNotifySource creates a native notification source.
func NewFSNotifySource() (*FSNotifySource, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	s := &FSNotifySource{
		watcher: fsw,
		paths:   make(map[string]bool),
		events:  make(chan Event, bufferSize),
		errors:  make(chan error, bufferSize),
		closeCh: make(chan struct{}),
	}
	s.closedWg.Add(1)
	go s.processLoop()
	return s, nil
}

// Add watches dir and every directory below it. Failing to watch dir itself
// is an error; failures on subdirectories are reported on Errors.
func (s *FSNotifySource) Add(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return s.watch(dir)
	}
	if err := s.watch(dir); err != nil {
		return err
	}
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			s.sendError(err)
			return nil
		}
		if d.IsDir() && p != dir {
			if err := s.watch(p); err != nil {
				s.sendError(err)
			}
		}
		return nil
	})
}

func (s *FSNotifySource) watch(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSourceClosed
	}
	if s.paths[path] {
		return nil
	}
	if err := s.watcher.Add(path); err != nil {
		return err
	}
	s.paths[path] = true
	return nil
}

// Events returns the event channel.
func (s *FSNotifySource) Events() <-chan Event {
	return s.events
}

// Errors returns the error channel.
func (s *FSNotifySource) Errors() <-chan error {
	return s.errors
}

// Close stops the source.
func (s *FSNotifySource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closeCh)
	s.mu.Unlock()

	err := s.watcher.Close()
	s.closedWg.Wait()

	close(s.events)
	close(s.errors)
	return err
}

func (s *FSNotifySource) processLoop() {
	defer s.closedWg.Done()

	for {
		select {
		case <-s.closeCh:
			return
		case fsEvent, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleFSEvent(fsEvent)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendError(err)
		}
	}
}

func (s *FSNotifySource) handleFSEvent(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}

	if op.Has(OpRemove) || op.Has(OpRename) {
		s.forget(fsEvent.Name)
	}
	if op.Has(OpCreate) {
		if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
			if err := s.Add(fsEvent.Name); err != nil {
				s.sendError(err)
			}
		}
	}

	select {
	case s.events <- Event{Path: fsEvent.Name, Op: op, Time: time.Now()}:
	case <-s.closeCh:
	}
}

// forget drops path and every tracked directory below it, so a directory
// recreated at the same path is watched again.
func (s *FSNotifySource) forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := path + string(filepath.Separator)
	for p := range s.paths {
		if p != path && !strings.HasPrefix(p, prefix) {
			continue
		}
		delete(s.paths, p)
		// The kernel watch is usually gone already; a renamed tree keeps it.
		_ = s.watcher.Remove(p)
	}
}

func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if fsOp.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}

func (s *FSNotifySource) sendError(err error) {
	select {
	case s.errors <- err:
	default:
	}
}
