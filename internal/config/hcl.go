package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spachava753/tazk/internal/models"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// hclRoot decodes the top-level blocks of a tasks.hcl file:
//
//	config {
//	  default    = "build"
//	  concurrent = true
//	}
//
//	task "build" {
//	  cmd  = ["go vet ./...", "go build ./..."]
//	  deps = ["generate"]
//	}
type hclRoot struct {
	Config *hclConfig `hcl:"config,block"`
	Tasks  []*hclTask `hcl:"task,block"`
	Remain hcl.Body   `hcl:",remain"`
}

type hclConfig struct {
	Default    *string `hcl:"default,optional"`
	Concurrent *bool   `hcl:"concurrent,optional"`
}

type hclTask struct {
	Name           string            `hcl:"name,label"`
	Cmd            hcl.Expression    `hcl:"cmd,optional"`
	Desc           *string           `hcl:"desc,optional"`
	Description    *string           `hcl:"description,optional"`
	Deps           []string          `hcl:"deps,optional"`
	Watch          []string          `hcl:"watch,optional"`
	Cache          *bool             `hcl:"cache,optional"`
	WatchDebounce  *int              `hcl:"watch_debounce,optional"`
	WatchPropagate *bool             `hcl:"watch_propagate,optional"`
	Env            map[string]string `hcl:"env,optional"`
	Concurrent     *bool             `hcl:"concurrent,optional"`
}

// decodeHCL returns a decoder for tasks.hcl. Task blocks keep their source
// order and duplicated labels are kept as separate entries.
func decodeHCL(filename string) decoder {
	return func(data []byte) (models.TasksFile, error) {
		file := models.TasksFile{Config: DefaultRunConfig()}

		parsed, diags := hclparse.NewParser().ParseHCL(data, filename)
		if diags.HasErrors() {
			return file, diags
		}

		var root hclRoot
		if diags := gohcl.DecodeBody(parsed.Body, nil, &root); diags.HasErrors() {
			return file, diags
		}

		if root.Config != nil {
			if root.Config.Default != nil {
				file.Config.Default = *root.Config.Default
			}
			if root.Config.Concurrent != nil {
				file.Config.Concurrent = *root.Config.Concurrent
			}
		}

		for _, block := range root.Tasks {
			task, err := translateHCLTask(block)
			if err != nil {
				return file, fmt.Errorf("task %q: %w", block.Name, err)
			}
			file.Entries = append(file.Entries, models.TaskEntry{Name: block.Name, Task: task})
		}

		return file, nil
	}
}

func translateHCLTask(block *hclTask) (models.Task, error) {
	task := DefaultTask()

	cmd, err := hclCommand(block.Cmd)
	if err != nil {
		return task, err
	}
	task.Cmd = cmd
	task.Deps = block.Deps
	task.Watch = block.Watch
	task.Env = block.Env
	task.Concurrent = block.Concurrent

	if block.Desc != nil {
		task.Desc = *block.Desc
	}
	if block.Description != nil {
		task.Description = *block.Description
	}
	if block.Cache != nil {
		task.Cache = *block.Cache
	}
	if block.WatchDebounce != nil {
		task.WatchDebounce = *block.WatchDebounce
	}
	if block.WatchPropagate != nil {
		task.WatchPropagate = *block.WatchPropagate
	}

	return task, nil
}

// hclCommand evaluates the cmd attribute, which may be a string or a list of
// strings. An absent attribute yields an empty CommandSpec.
func hclCommand(expr hcl.Expression) (models.CommandSpec, error) {
	if expr == nil {
		return models.CommandSpec{}, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return models.CommandSpec{}, diags
	}
	if val.IsNull() {
		return models.CommandSpec{}, nil
	}
	if !val.IsWhollyKnown() {
		return models.CommandSpec{}, fmt.Errorf("cmd must be a known value")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return models.SingleCommand(val.AsString()), nil
	case ty.IsTupleType() || ty.IsListType():
		list, err := convert.Convert(val, cty.List(cty.String))
		if err != nil {
			return models.CommandSpec{}, fmt.Errorf("cmd: %w", err)
		}
		var cmds []string
		if err := gocty.FromCtyValue(list, &cmds); err != nil {
			return models.CommandSpec{}, fmt.Errorf("cmd: %w", err)
		}
		return models.MultipleCommands(cmds...), nil
	default:
		return models.CommandSpec{}, fmt.Errorf("cmd must be a string or a list of strings, got %s", ty.FriendlyName())
	}
}
