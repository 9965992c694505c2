package config

import (
	"fmt"

	"github.com/spachava753/tazk/internal/models"
	"gopkg.in/yaml.v3"
)

// decodeYAML decodes a tasks.yaml file by walking the node tree, which keeps
// both the source order of tasks and any duplicated task names.
func decodeYAML(data []byte) (models.TasksFile, error) {
	file := models.TasksFile{Config: DefaultRunConfig()}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return file, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return file, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return file, fmt.Errorf("line %d: expected a mapping at the top level", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "config":
			if err := value.Decode(&file.Config); err != nil {
				return file, fmt.Errorf("decoding config: %w", err)
			}
		case "tasks":
			entries, err := decodeYAMLTasks(value)
			if err != nil {
				return file, err
			}
			file.Entries = entries
		}
	}

	return file, nil
}

func decodeYAMLTasks(node *yaml.Node) ([]models.TaskEntry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: tasks must be a mapping", node.Line)
	}

	entries := make([]models.TaskEntry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		task := DefaultTask()
		if err := node.Content[i+1].Decode(&task); err != nil {
			return nil, fmt.Errorf("task %q: %w", name, err)
		}
		entries = append(entries, models.TaskEntry{Name: name, Task: task})
	}
	return entries, nil
}
