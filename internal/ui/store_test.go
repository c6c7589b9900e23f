package ui

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"schedule/internal/taskwarrior"
)

type fakeFetcher struct {
	tasks   []taskwarrior.Task
	err     error
	filters []string
}

func (f *fakeFetcher) Export(ctx context.Context, filter string) ([]taskwarrior.Task, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	return f.tasks, nil
}

func someTasks() []taskwarrior.Task {
	return []taskwarrior.Task{
		{UUID: "aaa", ID: 1, Description: "Test task 1", Project: "home"},
		{UUID: "bbb", ID: 2, Description: "Test task 2", Project: "work"},
		{UUID: "ccc", ID: 3, Description: "Test task 3"},
	}
}

func TestStoreReloadReplacesSnapshot(t *testing.T) {
	f := &fakeFetcher{tasks: someTasks()}
	s := NewStore(f, "next")

	require.NoError(t, s.Reload(context.Background(), "next"))
	require.Equal(t, 3, s.Len())
	require.Equal(t, "next", s.Filter())
	require.Equal(t, []string{"aaa", "bbb", "ccc"}, s.UUIDs())
}

func TestStoreReloadErrorKeepsPriorSnapshot(t *testing.T) {
	f := &fakeFetcher{tasks: someTasks()}
	s := NewStore(f, "next")
	require.NoError(t, s.Reload(context.Background(), "next"))

	f.err = errors.New("task: not found")
	err := s.Reload(context.Background(), "overdue")
	require.Error(t, err)

	require.Equal(t, 3, s.Len())
	require.Equal(t, "next", s.Filter())
	_, ok := s.Get("aaa")
	require.True(t, ok)
}

func TestStoreGetMissIsNotFatal(t *testing.T) {
	f := &fakeFetcher{tasks: someTasks()}
	s := NewStore(f, "next")
	require.NoError(t, s.Reload(context.Background(), "next"))

	got, ok := s.Get("bbb")
	require.True(t, ok)
	require.Equal(t, 2, got.ID)

	_, ok = s.Get("stale-uuid")
	require.False(t, ok)
}

func TestStoreOrderedIsStableWithinSnapshot(t *testing.T) {
	f := &fakeFetcher{tasks: someTasks()}
	s := NewStore(f, "next")
	require.NoError(t, s.Reload(context.Background(), "next"))

	first := s.Ordered()
	second := s.Ordered()
	require.Equal(t, first, second)
}

func TestStoreApplyClearsStaleIndex(t *testing.T) {
	f := &fakeFetcher{tasks: someTasks()}
	s := NewStore(f, "next")
	require.NoError(t, s.Reload(context.Background(), "next"))

	s.Apply([]taskwarrior.Task{{UUID: "ddd", ID: 9}}, "all")
	_, ok := s.Get("aaa")
	require.False(t, ok)
	require.Equal(t, "all", s.Filter())
	require.Equal(t, 1, s.Len())
}
