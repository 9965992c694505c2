package graph

import (
	"strings"

	"github.com/spachava753/tazk/internal/models"
)

// Check is one independent validation rule. It receives the raw entry listing
// (duplicates included) and the deduplicated TaskSet built from it.
type Check func(entries []models.TaskEntry, tasks models.TaskSet) []ValidationError

// DefaultChecks are the checks run by Validate when none are given.
var DefaultChecks = []Check{
	CheckDuplicates,
	CheckMissingDependencies,
	CheckEmptyCommands,
	CheckSelfDependencies,
	CheckCycles,
}

// Validate runs every check and accumulates all findings. An empty result
// means the graph is valid.
func Validate(entries []models.TaskEntry, checks ...Check) []ValidationError {
	if len(checks) == 0 {
		checks = DefaultChecks
	}

	tasks := models.NewTaskSet(entries)
	var errs []ValidationError
	for _, check := range checks {
		errs = append(errs, check(entries, tasks)...)
	}
	return errs
}

// CheckDuplicates flags every entry whose name was already used earlier in the
// listing.
func CheckDuplicates(entries []models.TaskEntry, _ models.TaskSet) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Name] {
			errs = append(errs, duplicateTask(e.Name))
			continue
		}
		seen[e.Name] = true
	}
	return errs
}

// CheckMissingDependencies flags dependency names that are not defined tasks.
// A name repeated in one task's deps is reported once.
func CheckMissingDependencies(entries []models.TaskEntry, tasks models.TaskSet) []ValidationError {
	var errs []ValidationError
	for _, e := range entries {
		reported := make(map[string]bool)
		for _, dep := range e.Task.Deps {
			if tasks.Has(dep) || reported[dep] {
				continue
			}
			reported[dep] = true
			errs = append(errs, missingDependency(e.Name, dep))
		}
	}
	return errs
}

// CheckEmptyCommands flags tasks with no commands, or with any command that
// is empty or whitespace only.
func CheckEmptyCommands(entries []models.TaskEntry, _ models.TaskSet) []ValidationError {
	var errs []ValidationError
	for _, e := range entries {
		if hasEmptyCommand(e.Task.Commands()) {
			errs = append(errs, emptyCommand(e.Name))
		}
	}
	return errs
}

func hasEmptyCommand(cmds []string) bool {
	if len(cmds) == 0 {
		return true
	}
	for _, c := range cmds {
		if strings.TrimSpace(c) == "" {
			return true
		}
	}
	return false
}

// CheckSelfDependencies flags tasks that list themselves in deps.
func CheckSelfDependencies(entries []models.TaskEntry, _ models.TaskSet) []ValidationError {
	var errs []ValidationError
	for _, e := range entries {
		for _, dep := range e.Task.Deps {
			if dep == e.Name {
				errs = append(errs, selfDependency(e.Name))
				break
			}
		}
	}
	return errs
}

// CheckCycles reports every cycle reachable in the dependency graph. Self
// edges are left to CheckSelfDependencies and dangling edges to
// CheckMissingDependencies.
func CheckCycles(_ []models.TaskEntry, tasks models.TaskSet) []ValidationError {
	var errs []ValidationError
	for _, cycle := range FindCycles(tasks) {
		errs = append(errs, cyclicDependency(cycle))
	}
	return errs
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	visited
)

type frame struct {
	name string
	next int // index of the next dep to explore
}

// FindCycles runs an iterative depth-first search from every task, in
// TaskSet order. Reaching an in-progress task closes a cycle: the stack suffix
// starting at that task's frame. Each returned cycle lists tasks such that
// every element depends on the next, and the last depends on the first.
func FindCycles(tasks models.TaskSet) [][]string {
	state := make(map[string]visitState, tasks.Len())
	var cycles [][]string

	for _, root := range tasks.Names() {
		if state[root] != unvisited {
			continue
		}

		stack := []frame{{name: root}}
		depth := map[string]int{root: 0}
		state[root] = inProgress

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			task, _ := tasks.Get(top.name)

			if top.next >= len(task.Deps) {
				state[top.name] = visited
				delete(depth, top.name)
				stack = stack[:len(stack)-1]
				continue
			}

			dep := task.Deps[top.next]
			top.next++
			if dep == top.name || !tasks.Has(dep) {
				continue
			}

			switch state[dep] {
			case inProgress:
				suffix := stack[depth[dep]:]
				cycle := make([]string, len(suffix))
				for i, f := range suffix {
					cycle[i] = f.name
				}
				cycles = append(cycles, cycle)
			case unvisited:
				state[dep] = inProgress
				depth[dep] = len(stack)
				stack = append(stack, frame{name: dep})
			}
		}
	}

	return cycles
}
