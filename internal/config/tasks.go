package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/spachava753/tazk/internal/models"
)

var (
	// ErrNoTasksFile is returned when none of the known file names exist.
	ErrNoTasksFile = errors.New("no compatible file was found (tasks.toml, tasks.yaml, tasks.yml, tasks.json, tasks.hcl)")
	// ErrUnsupportedFormat is returned for an unknown file extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// KnownFiles lists the tasks file names DetectTasksFile looks for, in order.
var KnownFiles = []string{"tasks.toml", "tasks.yaml", "tasks.yml", "tasks.json", "tasks.hcl"}

// DefaultTask returns a Task with default values. Decoders decode over it so
// absent fields keep their defaults.
func DefaultTask() models.Task {
	return models.Task{
		WatchDebounce: models.DefaultWatchDebounceMs,
	}
}

// DefaultRunConfig returns a RunConfig with default values.
func DefaultRunConfig() models.RunConfig {
	return models.RunConfig{}
}

// DetectTasksFile returns the first known tasks file present in fsys.
func DetectTasksFile(fsys fs.FS) (string, error) {
	for _, name := range KnownFiles {
		if _, err := fs.Stat(fsys, name); err == nil {
			return name, nil
		}
	}
	return "", ErrNoTasksFile
}

// decoder turns raw file content into a TasksFile.
type decoder func(data []byte) (models.TasksFile, error)

func decoderFor(name string) (decoder, error) {
	switch path.Ext(name) {
	case ".toml":
		return decodeTOML, nil
	case ".yaml", ".yml":
		return decodeYAML, nil
	case ".json":
		return decodeJSON, nil
	case ".hcl":
		return decodeHCL(name), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// LoadTasksFile loads and parses the named tasks file from the given filesystem.
func LoadTasksFile(fsys fs.FS, name string) (models.TasksFile, error) {
	decode, err := decoderFor(name)
	if err != nil {
		return models.TasksFile{}, err
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return models.TasksFile{}, fmt.Errorf("reading %s: %w", name, err)
	}

	file, err := decode(data)
	if err != nil {
		return models.TasksFile{}, fmt.Errorf("parsing %s: %w", name, err)
	}
	file.Path = name

	slog.Debug("loaded tasks file", "path", name, "tasks", len(file.Entries))
	return file, nil
}
