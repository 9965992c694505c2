package watch

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/radovskyb/watcher"
)

// DefaultPollInterval is how often a PollSource rescans its trees.
const DefaultPollInterval = 100 * time.Millisecond

// PollSource is a Source that detects changes by rescanning directory trees
// on a fixed interval. It works on file systems without native
// notifications. Polling starts with the first Add.
type PollSource struct {
	interval time.Duration
	poller   *watcher.Watcher

	mu      sync.Mutex
	started bool
	closed  bool

	events chan Event
	errors chan error

	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewPollSource creates a polling source. A non-positive interval uses
// DefaultPollInterval.
func NewPollSource(interval time.Duration) *PollSource {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollSource{
		interval: interval,
		poller:   watcher.New(),
		events:   make(chan Event, bufferSize),
		errors:   make(chan error, bufferSize),
		closeCh:  make(chan struct{}),
	}
}

// Add starts polling dir recursively. Files already present are recorded
// without events.
func (s *PollSource) Add(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSourceClosed
	}
	if err := s.poller.AddRecursive(dir); err != nil {
		return err
	}
	if !s.started {
		s.started = true
		go func() {
			_ = s.poller.Start(s.interval)
		}()
		s.poller.Wait()

		s.closedWg.Add(1)
		go s.forward()
	}
	return nil
}

// Events returns the event channel.
func (s *PollSource) Events() <-chan Event {
	return s.events
}

// Errors returns the error channel.
func (s *PollSource) Errors() <-chan error {
	return s.errors
}

// Close stops polling.
func (s *PollSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closeCh)
	started := s.started
	s.mu.Unlock()

	if started {
		s.poller.Close()
		s.closedWg.Wait()
	}
	close(s.events)
	close(s.errors)
	return nil
}

// forward drains the poller until it closes. The poller blocks on its
// unbuffered channels, so forward keeps reading even while Close runs.
func (s *PollSource) forward() {
	defer s.closedWg.Done()

	for {
		select {
		case <-s.poller.Closed:
			return
		case ev := <-s.poller.Event:
			now := time.Now()
			op := convertPollOp(ev.Op)
			if op.Has(OpRename) && ev.OldPath != "" && ev.OldPath != ev.Path {
				s.send(Event{Path: ev.OldPath, Op: OpRename, Time: now})
			}
			s.send(Event{Path: ev.Path, Op: op, Time: now})
		case err := <-s.poller.Error:
			s.sendError(err)
		}
	}
}

func (s *PollSource) send(ev Event) {
	select {
	case s.events <- ev:
	case <-s.closeCh:
	}
}

func convertPollOp(op watcher.Op) Op {
	switch op {
	case watcher.Create:
		return OpCreate
	case watcher.Write:
		return OpWrite
	case watcher.Remove:
		return OpRemove
	case watcher.Rename, watcher.Move:
		return OpRename
	case watcher.Chmod:
		return OpChmod
	default:
		return 0
	}
}

func (s *PollSource) sendError(err error) {
	select {
	case s.errors <- err:
	default:
	}
}
