// Package scheduler derives execution orders from a validated TaskSet.
//
// All functions build the dependency graph fresh from the TaskSet and never
// mutate it. Ties between tasks that become ready together are broken by the
// TaskSet's iteration order, so results are reproducible for a fixed input.
package scheduler

import (
	"github.com/spachava753/tazk/internal/models"
)

// TopologicalOrder returns every task name ordered so that each task follows
// all of its dependencies (Kahn's algorithm with a FIFO queue).
//
// It does not detect cycles. On a cyclic graph the tasks on or behind a cycle
// are silently left out; callers validate the graph first.
func TopologicalOrder(tasks models.TaskSet) []string {
	names := tasks.Names()
	indegree := make(map[string]int, len(names))
	dependents := make(map[string][]string, len(names))

	for _, name := range names {
		task, _ := tasks.Get(name)
		for _, dep := range task.Deps {
			dependents[dep] = append(dependents[dep], name)
			indegree[name]++
		}
	}

	queue := make([]string, 0, len(names))
	for _, name := range names {
		if indegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	order := make([]string, 0, len(names))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, next := range dependents[node] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	return order
}

// DependencyClosure returns start together with every task it transitively
// depends on. Each task is visited at most once, which also keeps the walk
// finite on cyclic input. Unknown names are ignored.
func DependencyClosure(tasks models.TaskSet, start string) map[string]bool {
	closure := make(map[string]bool)
	if !tasks.Has(start) {
		return closure
	}

	stack := []string{start}
	closure[start] = true
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		task, _ := tasks.Get(name)
		for _, dep := range task.Deps {
			if closure[dep] || !tasks.Has(dep) {
				continue
			}
			closure[dep] = true
			stack = append(stack, dep)
		}
	}

	return closure
}

// RunOrderFrom returns the global topological order restricted to the
// dependency closure of start: every prerequisite of start, then start.
func RunOrderFrom(tasks models.TaskSet, start string) []string {
	closure := DependencyClosure(tasks, start)

	var order []string
	for _, name := range TopologicalOrder(tasks) {
		if closure[name] {
			order = append(order, name)
		}
	}
	return order
}

// DependentsClosure returns every task that directly or transitively lists
// changed in its deps. changed itself is only included when it sits on a cycle.
func DependentsClosure(tasks models.TaskSet, changed string) map[string]bool {
	names := tasks.Names()
	direct := make(map[string][]string, len(names))
	for _, name := range names {
		task, _ := tasks.Get(name)
		for _, dep := range task.Deps {
			direct[dep] = append(direct[dep], name)
		}
	}

	closure := make(map[string]bool)
	stack := []string{changed}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, dependent := range direct[name] {
			if closure[dependent] {
				continue
			}
			closure[dependent] = true
			stack = append(stack, dependent)
		}
	}

	return closure
}

// DependentsOrder returns the dependents closure of changed in global
// topological order. This is the order watch propagation reruns them in.
func DependentsOrder(tasks models.TaskSet, changed string) []string {
	closure := DependentsClosure(tasks, changed)

	var order []string
	for _, name := range TopologicalOrder(tasks) {
		if closure[name] && name != changed {
			order = append(order, name)
		}
	}
	return order
}
