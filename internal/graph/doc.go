// Package graph certifies that a task collection forms a well-formed
// dependency graph before anything runs.
//
// Validation is a list of independent checks over the ordered entry listing
// of a tasks file, so duplicated names are still visible. Every check runs and
// every finding is reported; nothing is fixed up automatically.
//
// The dependency graph is never stored. Each check derives what it needs from
// the entries, with an edge task -> dep for every name in a task's deps.
package graph
