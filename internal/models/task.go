package models

// DefaultWatchDebounceMs is the debounce window applied when a task does not
// set watch_debounce.
const DefaultWatchDebounceMs = 500

// Task represents a single task definition from the tasks file. The task name
// is the key it is stored under and is not part of the struct.
type Task struct {
	Cmd            CommandSpec       `yaml:"cmd" toml:"cmd" json:"cmd"`
	Desc           string            `yaml:"desc,omitempty" toml:"desc,omitempty" json:"desc,omitempty"`
	Description    string            `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
	Deps           []string          `yaml:"deps,omitempty" toml:"deps,omitempty" json:"deps,omitempty"`
	Watch          []string          `yaml:"watch,omitempty" toml:"watch,omitempty" json:"watch,omitempty"`
	Cache          bool              `yaml:"cache" toml:"cache" json:"cache"`
	WatchDebounce  int               `yaml:"watch_debounce" toml:"watch_debounce" json:"watch_debounce"` // milliseconds, default: 500
	WatchPropagate bool              `yaml:"watch_propagate" toml:"watch_propagate" json:"watch_propagate"`
	Env            map[string]string `yaml:"env,omitempty" toml:"env,omitempty" json:"env,omitempty"`
	Concurrent     *bool             `yaml:"concurrent,omitempty" toml:"concurrent,omitempty" json:"concurrent,omitempty"`
}

// Summary returns the human readable description, preferring desc over description.
func (t Task) Summary() string {
	if t.Desc != "" {
		return t.Desc
	}
	return t.Description
}

// Commands returns the normalized command list.
func (t Task) Commands() []string {
	return t.Cmd.Commands()
}

// IsWatched reports whether the task declares any watch patterns.
func (t Task) IsWatched() bool {
	return len(t.Watch) > 0
}

// ConcurrentPolicy resolves the effective concurrency policy: the task's
// override when set, the global default otherwise.
func (t Task) ConcurrentPolicy(global bool) bool {
	if t.Concurrent != nil {
		return *t.Concurrent
	}
	return global
}

// TaskEntry is a named task as it appeared in the source listing.
type TaskEntry struct {
	Name string
	Task Task
}

// TaskSet is an immutable, ordered mapping from task name to task. Iteration
// order follows the source listing; for duplicated names the first entry wins.
type TaskSet struct {
	names []string
	tasks map[string]Task
}

// NewTaskSet builds a TaskSet from an ordered entry list.
func NewTaskSet(entries []TaskEntry) TaskSet {
	ts := TaskSet{
		names: make([]string, 0, len(entries)),
		tasks: make(map[string]Task, len(entries)),
	}
	for _, e := range entries {
		if _, ok := ts.tasks[e.Name]; ok {
			continue
		}
		ts.names = append(ts.names, e.Name)
		ts.tasks[e.Name] = e.Task
	}
	return ts
}

// Names returns the task names in stable iteration order.
func (s TaskSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Get looks up a task by name.
func (s TaskSet) Get(name string) (Task, bool) {
	t, ok := s.tasks[name]
	return t, ok
}

// Has reports whether a task with the given name exists.
func (s TaskSet) Has(name string) bool {
	_, ok := s.tasks[name]
	return ok
}

// Len returns the number of distinct tasks.
func (s TaskSet) Len() int {
	return len(s.names)
}

// RunConfig holds the collection level settings.
type RunConfig struct {
	Default    string `yaml:"default,omitempty" toml:"default,omitempty" json:"default,omitempty"`
	Concurrent bool   `yaml:"concurrent" toml:"concurrent" json:"concurrent"`
}

// TasksFile is a fully decoded tasks file. Entries keeps every task in source
// order, including conflicting duplicates, so validation can report them.
type TasksFile struct {
	Path    string
	Config  RunConfig
	Entries []TaskEntry
}

// TaskSet returns the deduplicated task collection.
func (f TasksFile) TaskSet() TaskSet {
	return NewTaskSet(f.Entries)
}
