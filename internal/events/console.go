package events

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"
)

var (
	accent  = color.New(color.FgCyan, color.OpBold)
	success = color.New(color.FgGreen, color.OpBold)
	failure = color.New(color.FgRed, color.OpBold)
	warning = color.New(color.FgYellow, color.OpBold)
	subtle  = color.New(color.FgDarkGray)
	path    = color.New(color.FgBlue)
)

// Console renders events as colored, human oriented lines. Errors go to errW,
// everything else to w.
type Console struct {
	mu   sync.Mutex
	w    io.Writer
	errW io.Writer
}

// NewConsole creates a console observer.
func NewConsole(w, errW io.Writer) *Console {
	return &Console{w: w, errW: errW}
}

func (c *Console) Notify(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case TaskStarted:
		fmt.Fprintf(c.w, "🐕 running task: %s\n", accent.Sprint(e.Task))
	case CommandStarted:
		fmt.Fprintf(c.w, "   ➜ %s\n", subtle.Sprint(e.Command))
	case TaskSucceeded:
		fmt.Fprintf(c.w, "%s task %s finished\n", success.Sprint("✔"), e.Task)
	case TaskFailed:
		fmt.Fprintf(c.errW, "%s %s\n", failure.Sprint("✗"), failure.Sprint(e.Err))
	case WatcherArmed:
		for _, dir := range e.Dirs {
			fmt.Fprintf(c.w, "👀 watching directory: %s\n", path.Sprint(dir))
		}
		fmt.Fprintf(c.w, "👀 watching files with patterns: %s\n", path.Sprint("["+strings.Join(e.Patterns, ", ")+"]"))
	case WatcherStopped:
		fmt.Fprintf(c.errW, "%s watcher for %s stopped: %v\n", warning.Sprint("⚠"), e.Task, e.Err)
	case FileChangeDetected:
		fmt.Fprintf(c.w, "📝 change detected: %s (matched: %s)\n", warning.Sprint(e.Path), subtle.Sprint(e.Pattern))
	case DependencyPropagated:
		fmt.Fprintf(c.w, "🔄 propagating to dependent task: %s\n", accent.Sprint(e.Task))
	case RunIdleWaiting:
		fmt.Fprintf(c.w, "⏳ waiting for file changes... %s\n", subtle.Sprint("(Press Ctrl+C to exit)"))
	}
}

// Banner prints the program banner.
func (c *Console) Banner(tagline string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\n🐕 %s %s\n\n", accent.Sprint("Tazk"), subtle.Sprint("- "+tagline))
}

// FilePath announces the tasks file in use.
func (c *Console) FilePath(p string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "📁 file path: %s\n", path.Sprint(p))
}

// ValidationOK reports a clean validation pass.
func (c *Console) ValidationOK() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, "✅ tasks file validation passed")
}

// ValidationFailed lists every validation finding.
func (c *Console) ValidationFailed(errs []error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.errW, "%s %s\n", failure.Sprint("✗"), failure.Sprint("validation errors found:"))
	for _, err := range errs {
		fmt.Fprintf(c.errW, "❌ %s\n", failure.Sprint(err.Error()))
	}
}

// Error prints a fatal error.
func (c *Console) Error(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.errW, "%s %s\n", failure.Sprint("✗"), failure.Sprint(err.Error()))
}

// TaskItem is one line of the task listing.
type TaskItem struct {
	Name  string
	Desc  string
	Cache bool
}

// TaskList prints the available tasks.
func (c *Console) TaskList(items []TaskItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.separator()
	fmt.Fprintln(c.w, "📋 available tasks:")
	for _, item := range items {
		line := "   • " + success.Sprint(item.Name)
		if item.Desc != "" {
			line += ": " + subtle.Sprint(item.Desc)
		}
		if item.Cache {
			line += " " + subtle.Sprint("(cache)")
		}
		fmt.Fprintln(c.w, line)
	}
	c.separator()
}

// Separator prints a horizontal rule.
func (c *Console) Separator() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.separator()
}

func (c *Console) separator() {
	fmt.Fprintln(c.w, subtle.Sprint(strings.Repeat("─", 50)))
}
