// Package client keeps a local copy of a user's task list in step with the
// server.
package client

import (
	"fmt"
	"slices"
	"strings"

	"todolist/models"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	case "":
		return FilterAll, nil
	}
	return "", fmt.Errorf("unknown filter %q (want all, active or completed)", s)
}

func (f Filter) keep(t models.Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	}
	return true
}

// ApplyFilter returns the tasks matching f, keeping their order. The
// input is never modified.
func ApplyFilter(tasks []models.Task, f Filter) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// MergeOne replaces the task with t's id, or appends t when it is new.
func MergeOne(tasks []models.Task, t models.Task) []models.Task {
	out := make([]models.Task, len(tasks), len(tasks)+1)
	copy(out, tasks)
	for i := range out {
		if out[i].ID == t.ID {
			out[i] = t
			return out
		}
	}
	return append(out, t)
}

func RemoveOne(tasks []models.Task, id string) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// Reorder moves the task at index from to index to. Out-of-range indexes
// return the input unchanged.
func Reorder(tasks []models.Task, from, to int) []models.Task {
	if from < 0 || from >= len(tasks) || to < 0 || to >= len(tasks) {
		return tasks
	}
	out := make([]models.Task, 0, len(tasks))
	moved := tasks[from]
	for i, t := range tasks {
		if i != from {
			out = append(out, t)
		}
	}
	return slices.Insert(out, to, moved)
}

func CountsOf(tasks []models.Task) models.Counts {
	c := models.Counts{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		}
	}
	c.Active = c.Total - c.Completed
	return c
}
