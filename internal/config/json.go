package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spachava753/tazk/internal/models"
)

// decodeJSON decodes a tasks.json file. It reads the tasks object as a token
// stream because decoding into a map would silently drop duplicated names.
func decodeJSON(data []byte) (models.TasksFile, error) {
	file := models.TasksFile{Config: DefaultRunConfig()}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return file, err
	}

	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return file, err
		}

		switch key {
		case "config":
			if err := dec.Decode(&file.Config); err != nil {
				return file, fmt.Errorf("decoding config: %w", err)
			}
		case "tasks":
			entries, err := decodeJSONTasks(dec)
			if err != nil {
				return file, err
			}
			file.Entries = entries
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return file, fmt.Errorf("decoding %q: %w", key, err)
			}
		}
	}

	return file, expectDelim(dec, '}')
}

func decodeJSONTasks(dec *json.Decoder) ([]models.TaskEntry, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("tasks: %w", err)
	}

	var entries []models.TaskEntry
	for dec.More() {
		name, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		task := DefaultTask()
		if err := dec.Decode(&task); err != nil {
			return nil, fmt.Errorf("task %q: %w", name, err)
		}
		entries = append(entries, models.TaskEntry{Name: name, Task: task})
	}

	return entries, expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}
