package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/spachava753/tazk/internal/environment"
)

// waitDelay bounds how long Exec waits for output pipes after a cancelled
// command was killed.
const waitDelay = 5 * time.Second

// Environment runs commands on the local machine through the platform shell.
type Environment struct {
	shell []string
}

// New creates a local environment using the platform shell.
func New() *Environment {
	return &Environment{shell: DefaultShell()}
}

// NewWithShell creates a local environment with a custom shell invocation,
// e.g. []string{"bash", "-c"}. The command string is appended as the last
// argument.
func NewWithShell(shell ...string) *Environment {
	return &Environment{shell: shell}
}

// DefaultShell returns the shell used to interpret commands: cmd /C on
// Windows, sh -c elsewhere.
func DefaultShell() []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"sh", "-c"}
}

// Name returns the environment name.
func (e *Environment) Name() string {
	return "local"
}

// Exec executes a command through the shell with the inherited environment
// plus opts.Env.
func (e *Environment) Exec(ctx context.Context, cmd string, stdout, stderr io.Writer, opts environment.ExecOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, fmt.Errorf("command not started: %w", err)
	}

	args := append(slices.Clone(e.shell[1:]), cmd)
	execCmd := exec.CommandContext(ctx, e.shell[0], args...)
	execCmd.Stdout = stdout
	execCmd.Stderr = stderr
	execCmd.Dir = opts.WorkDir
	execCmd.Env = MergeEnv(os.Environ(), opts.Env)
	execCmd.WaitDelay = waitDelay

	err := execCmd.Run()
	if err == nil {
		return 0, nil
	}

	// A killed command also surfaces as an ExitError, so check cancellation first
	if ctx.Err() != nil {
		return -1, fmt.Errorf("command cancelled: %w", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("%w: %w", environment.ErrSpawn, err)
}

// MergeEnv overlays overrides on a KEY=VALUE environment list. Existing keys
// keep their position; new keys are appended in sorted order.
func MergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}

	out := make([]string, 0, len(base)+len(overrides))
	applied := make(map[string]bool, len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if val, ok := overrides[key]; ok {
			if !applied[key] {
				out = append(out, key+"="+val)
				applied[key] = true
			}
			continue
		}
		out = append(out, kv)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		if !applied[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}

	return out
}
