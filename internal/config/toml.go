package config

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/spachava753/tazk/internal/models"
)

type tomlFile struct {
	Config models.RunConfig          `toml:"config"`
	Tasks  map[string]toml.Primitive `toml:"tasks"`
}

// decodeTOML decodes a tasks.toml file. TOML forbids duplicate keys, so the
// parser already rejects duplicated task names; entry order comes from the
// metadata key listing.
func decodeTOML(data []byte) (models.TasksFile, error) {
	raw := tomlFile{Config: DefaultRunConfig()}
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return models.TasksFile{}, err
	}

	file := models.TasksFile{Config: raw.Config}
	seen := make(map[string]bool, len(raw.Tasks))
	for _, key := range md.Keys() {
		if len(key) != 2 || key[0] != "tasks" {
			continue
		}
		name := key[1]
		if seen[name] {
			continue
		}
		seen[name] = true

		task := DefaultTask()
		if err := md.PrimitiveDecode(raw.Tasks[name], &task); err != nil {
			return models.TasksFile{}, fmt.Errorf("task %q: %w", name, err)
		}
		file.Entries = append(file.Entries, models.TaskEntry{Name: name, Task: task})
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		slog.Debug("ignoring unknown keys in tasks file", "keys", fmt.Sprint(undecoded))
	}

	return file, nil
}
