package scheduler_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spachava753/tazk/internal/models"
	"github.com/spachava753/tazk/internal/scheduler"
)

func taskSet(defs ...any) models.TaskSet {
	var entries []models.TaskEntry
	for i := 0; i+1 < len(defs); i += 2 {
		name := defs[i].(string)
		deps, _ := defs[i+1].([]string)
		entries = append(entries, models.TaskEntry{
			Name: name,
			Task: models.Task{Cmd: models.SingleCommand("echo " + name), Deps: deps},
		})
	}
	return models.NewTaskSet(entries)
}

// randomDAG builds an acyclic graph where task i may only depend on tasks with
// a lower index, then lists the tasks in shuffled order.
func randomDAG(r *rand.Rand, n int) models.TaskSet {
	entries := make([]models.TaskEntry, n)
	for i := range n {
		var deps []string
		for j := range i {
			if r.Intn(4) == 0 {
				deps = append(deps, fmt.Sprintf("t%d", j))
			}
		}
		entries[i] = models.TaskEntry{
			Name: fmt.Sprintf("t%d", i),
			Task: models.Task{Cmd: models.SingleCommand("true"), Deps: deps},
		}
	}
	r.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })
	return models.NewTaskSet(entries)
}

func positions(order []string) map[string]int {
	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	return pos
}

func TestTopologicalOrderRespectsDeps(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for trial := range 50 {
		tasks := randomDAG(r, 2+r.Intn(20))
		order := scheduler.TopologicalOrder(tasks)

		if len(order) != tasks.Len() {
			t.Fatalf("trial %d: expected %d tasks, got %d", trial, tasks.Len(), len(order))
		}
		pos := positions(order)
		for _, name := range tasks.Names() {
			tk, _ := tasks.Get(name)
			for _, dep := range tk.Deps {
				if pos[dep] >= pos[name] {
					t.Errorf("trial %d: %s placed before its dependency %s", trial, name, dep)
				}
			}
		}

		if diff := cmp.Diff(order, scheduler.TopologicalOrder(tasks)); diff != "" {
			t.Errorf("trial %d: order not reproducible:\n%s", trial, diff)
		}
	}
}

func TestTopologicalOrderTieBreak(t *testing.T) {
	tasks := taskSet(
		"c", nil,
		"a", nil,
		"d", []string{"c", "a"},
		"b", nil,
	)

	want := []string{"c", "a", "b", "d"}
	if diff := cmp.Diff(want, scheduler.TopologicalOrder(tasks)); diff != "" {
		t.Errorf("TopologicalOrder() mismatch (-want +got):\n%s", diff)
	}
}

func TestTopologicalOrderCyclicIsPartial(t *testing.T) {
	tasks := taskSet(
		"a", []string{"b"},
		"b", []string{"a"},
		"c", nil,
	)

	want := []string{"c"}
	if diff := cmp.Diff(want, scheduler.TopologicalOrder(tasks)); diff != "" {
		t.Errorf("TopologicalOrder() mismatch (-want +got):\n%s", diff)
	}
}

func TestRunOrderFrom(t *testing.T) {
	tests := []struct {
		name  string
		tasks models.TaskSet
		start string
		want  []string
	}{
		{
			name:  "build then test",
			tasks: taskSet("build", nil, "test", []string{"build"}),
			start: "test",
			want:  []string{"build", "test"},
		},
		{
			name: "diamond excludes unrelated",
			tasks: taskSet(
				"gen", nil,
				"lint", []string{"gen"},
				"compile", []string{"gen"},
				"docs", nil,
				"release", []string{"lint", "compile"},
			),
			start: "release",
			want:  []string{"gen", "lint", "compile", "release"},
		},
		{
			name:  "leaf",
			tasks: taskSet("build", nil, "test", []string{"build"}),
			start: "build",
			want:  []string{"build"},
		},
		{
			name:  "unknown start",
			tasks: taskSet("build", nil),
			start: "ghost",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scheduler.RunOrderFrom(tt.tasks, tt.start)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("RunOrderFrom() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunOrderFromProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := range 30 {
		tasks := randomDAG(r, 2+r.Intn(15))
		for _, start := range tasks.Names() {
			order := scheduler.RunOrderFrom(tasks, start)
			closure := scheduler.DependencyClosure(tasks, start)

			if len(order) != len(closure) {
				t.Fatalf("trial %d start %s: order %v does not cover closure", trial, start, order)
			}
			if order[len(order)-1] != start {
				t.Errorf("trial %d: expected %s last, got %v", trial, start, order)
			}
			for _, name := range order {
				if !closure[name] {
					t.Errorf("trial %d: %s is outside the closure of %s", trial, name, start)
				}
			}
		}
	}
}

func TestDependencyClosureToleratesCycles(t *testing.T) {
	tasks := taskSet(
		"a", []string{"b", "ghost"},
		"b", []string{"c", "a"},
		"c", []string{"a"},
		"d", nil,
	)

	got := scheduler.DependencyClosure(tasks, "a")
	want := map[string]bool{"a": true, "b": true, "c": true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DependencyClosure() mismatch (-want +got):\n%s", diff)
	}
}

func TestDependentsClosureIsInverse(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	for trial := range 30 {
		tasks := randomDAG(r, 2+r.Intn(15))
		names := tasks.Names()
		for _, a := range names {
			dependents := scheduler.DependentsClosure(tasks, a)
			for _, b := range names {
				if a == b {
					continue
				}
				inverse := scheduler.DependencyClosure(tasks, b)[a]
				if dependents[b] != inverse {
					t.Errorf("trial %d: %s in dependents(%s) = %v, %s in deps(%s) = %v",
						trial, b, a, dependents[b], a, b, inverse)
				}
			}
		}
	}
}

func TestDependentsOrder(t *testing.T) {
	tasks := taskSet(
		"lib", nil,
		"app", []string{"lib"},
		"e2e", []string{"app"},
		"unit", []string{"lib"},
		"docs", nil,
	)

	want := []string{"app", "unit", "e2e"}
	if diff := cmp.Diff(want, scheduler.DependentsOrder(tasks, "lib")); diff != "" {
		t.Errorf("DependentsOrder() mismatch (-want +got):\n%s", diff)
	}
	if got := scheduler.DependentsOrder(tasks, "docs"); len(got) != 0 {
		t.Errorf("expected no dependents of docs, got %v", got)
	}
}
