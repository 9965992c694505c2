package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// CommandKind distinguishes the two accepted shapes of the cmd field.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandSingle
	CommandMultiple
)

// CommandSpec is the cmd field of a task: either one command string or a list
// of them. The distinction only matters while decoding; Commands normalizes it.
type CommandSpec struct {
	Kind     CommandKind
	Single   string
	Multiple []string
}

// SingleCommand returns a CommandSpec holding one command.
func SingleCommand(cmd string) CommandSpec {
	return CommandSpec{Kind: CommandSingle, Single: cmd}
}

// MultipleCommands returns a CommandSpec holding a command list.
func MultipleCommands(cmds ...string) CommandSpec {
	return CommandSpec{Kind: CommandMultiple, Multiple: cmds}
}

// Commands returns the command list. A single command becomes a one element list.
func (c CommandSpec) Commands() []string {
	switch c.Kind {
	case CommandSingle:
		return []string{c.Single}
	case CommandMultiple:
		out := make([]string, len(c.Multiple))
		copy(out, c.Multiple)
		return out
	default:
		return nil
	}
}

// UnmarshalYAML accepts a scalar string or a sequence of strings.
func (c *CommandSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return fmt.Errorf("decoding cmd: %w", err)
		}
		*c = SingleCommand(s)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("decoding cmd list: %w", err)
		}
		*c = MultipleCommands(list...)
		return nil
	default:
		return fmt.Errorf("line %d: cmd must be a string or a list of strings", node.Line)
	}
}

// UnmarshalTOML accepts a string or an array of strings.
func (c *CommandSpec) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		*c = SingleCommand(val)
		return nil
	case []any:
		list := make([]string, 0, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("cmd[%d]: expected string, got %T", i, item)
			}
			list = append(list, s)
		}
		*c = MultipleCommands(list...)
		return nil
	default:
		return fmt.Errorf("cmd must be a string or an array of strings, got %T", v)
	}
}

// UnmarshalJSON accepts a string or an array of strings.
func (c *CommandSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = SingleCommand(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("cmd must be a string or an array of strings: %w", err)
	}
	*c = MultipleCommands(list...)
	return nil
}

// MarshalJSON writes the command back in its original shape.
func (c CommandSpec) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CommandSingle:
		return json.Marshal(c.Single)
	case CommandMultiple:
		return json.Marshal(c.Multiple)
	default:
		return []byte("null"), nil
	}
}
