package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spachava753/tazk/internal/config"
	"github.com/spachava753/tazk/internal/environment/local"
	"github.com/spachava753/tazk/internal/events"
	"github.com/spachava753/tazk/internal/executor"
	"github.com/spachava753/tazk/internal/graph"
	"github.com/spachava753/tazk/internal/models"
	"github.com/spachava753/tazk/internal/watch"
	"github.com/spf13/cobra"
)

type options struct {
	file      string
	list      bool
	logLevel  string
	logFormat string
	poll      bool
}

func main() {
	// Setup context with manual signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	defer func() {
		signal.Stop(sigChan)
		cancel()
	}()

	go func() {
		sig := <-sigChan
		slog.Info("interrupt received, shutting down gracefully...", "signal", sig)
		cancel()
	}()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "tazk [task]",
		Short: "Run declarative, shell-backed tasks in dependency order",
		Long: `Tazk runs the tasks defined in tasks.toml, tasks.yaml, tasks.yml, tasks.json
or tasks.hcl. Dependencies run first, in order. Tasks with watch patterns are
re-run whenever a matching file changes, until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Arguments are valid from here on; run reports its own errors.
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true

			var start string
			if len(args) > 0 {
				start = args[0]
			}
			return run(cmd.Context(), opts, start, stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "path to the tasks file (default: auto-detect in the current directory)")
	flags.BoolVarP(&opts.list, "list", "l", false, "list the available tasks and exit")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text, json")
	flags.BoolVar(&opts.poll, "poll", false, "detect file changes by polling instead of native notifications")

	return cmd
}

func run(ctx context.Context, opts *options, start string, stdout, stderr io.Writer) error {
	slog.SetDefault(newLogger(opts.logLevel, opts.logFormat, stderr))

	console := events.NewConsole(stdout, stderr)
	console.Banner("a declarative task runner")

	dir, name, err := locateTasksFile(opts.file)
	if err != nil {
		console.Error(err)
		return err
	}
	console.FilePath(filepath.Join(dir, name))

	file, err := executor.LoadTasks(os.DirFS(dir), name)
	var verrs graph.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		report := make([]error, len(verrs))
		for i, e := range verrs {
			report[i] = e
		}
		console.ValidationFailed(report)
		return err
	case err != nil:
		console.Error(err)
		return err
	}
	console.ValidationOK()

	tasks := file.TaskSet()
	if opts.list {
		console.TaskList(taskItems(tasks))
		return nil
	}

	var obs events.Observer = console
	if opts.logLevel == "debug" || opts.logFormat == "json" {
		obs = events.Multi(console, events.NewSlogObserver(nil))
	}

	engine := executor.NewEngine(local.New(), obs)
	engine.WorkDir = dir
	supervisor := watch.NewSupervisor(obs, watch.SourceOptions{Poll: opts.poll})

	console.Separator()
	result, err := executor.NewOrchestrator(tasks, file.Config, engine, supervisor).Run(ctx, start)
	if err != nil {
		console.Error(err)
		return err
	}

	slog.Debug("run finished",
		"run_id", result.RunID,
		"task", result.StartTask,
		"completed", len(result.Completed),
		"duration_sec", result.DurationSec)
	return nil
}

// locateTasksFile resolves the directory and file name of the tasks file:
// the explicit path when given, the first known file in the working
// directory otherwise.
func locateTasksFile(explicit string) (dir, name string, err error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", "", err
		}
		return filepath.Dir(abs), filepath.Base(abs), nil
	}

	dir, err = os.Getwd()
	if err != nil {
		return "", "", err
	}
	name, err = config.DetectTasksFile(os.DirFS(dir))
	if err != nil {
		return "", "", err
	}
	return dir, name, nil
}

func taskItems(tasks models.TaskSet) []events.TaskItem {
	items := make([]events.TaskItem, 0, tasks.Len())
	for _, name := range tasks.Names() {
		task, _ := tasks.Get(name)
		items = append(items, events.TaskItem{Name: name, Desc: task.Summary(), Cache: task.Cache})
	}
	return items
}
