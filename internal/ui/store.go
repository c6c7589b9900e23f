package ui

import (
	"context"

	"schedule/internal/taskwarrior"
)

// Fetcher is the record source: it exports an ordered snapshot of tasks for
// a report or filter string. An empty result is a valid success.
type Fetcher interface {
	Export(ctx context.Context, filterOrReport string) ([]taskwarrior.Task, error)
}

// Store holds the current in-memory snapshot of tasks. Snapshots are replaced
// wholesale, never patched; on a failed fetch the previous snapshot and filter
// stay in place untouched.
type Store struct {
	fetcher Fetcher
	filter  string
	tasks   []taskwarrior.Task
	index   map[string]int
}

func NewStore(fetcher Fetcher, filter string) *Store {
	return &Store{
		fetcher: fetcher,
		filter:  filter,
		index:   make(map[string]int),
	}
}

// Filter returns the report/filter string of the current snapshot.
func (s *Store) Filter() string {
	return s.filter
}

// Fetch exports tasks for a filter without touching the snapshot. The UI runs
// this off the input loop and applies the result separately.
func (s *Store) Fetch(ctx context.Context, filter string) ([]taskwarrior.Task, error) {
	return s.fetcher.Export(ctx, filter)
}

// Apply replaces the whole snapshot and records the filter that produced it.
func (s *Store) Apply(tasks []taskwarrior.Task, filter string) {
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		index[t.UUID] = i
	}
	s.tasks = tasks
	s.index = index
	s.filter = filter
}

// Reload fetches with the given filter and applies the result. Either the
// snapshot is fully replaced or, on error, left exactly as it was.
func (s *Store) Reload(ctx context.Context, filter string) error {
	tasks, err := s.Fetch(ctx, filter)
	if err != nil {
		return err
	}
	s.Apply(tasks, filter)
	return nil
}

// Get looks a task up by uuid. A miss is an expected outcome (the uuid went
// stale across a reload), not an error.
func (s *Store) Get(uuid string) (taskwarrior.Task, bool) {
	i, ok := s.index[uuid]
	if !ok {
		return taskwarrior.Task{}, false
	}
	return s.tasks[i], true
}

// Ordered returns the snapshot in the order the external tool emitted it.
func (s *Store) Ordered() []taskwarrior.Task {
	return s.tasks
}

func (s *Store) Len() int {
	return len(s.tasks)
}

// UUIDs returns every uuid in snapshot order.
func (s *Store) UUIDs() []string {
	out := make([]string, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.UUID)
	}
	return out
}
