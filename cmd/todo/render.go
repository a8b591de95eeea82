package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"todolist/models"
)

func renderTasks(w io.Writer, tasks []models.Task, counts models.Counts) {
	r := lipgloss.NewRenderer(w)
	var (
		doneStyle  = r.NewStyle().Strikethrough(true).Faint(true)
		idStyle    = r.NewStyle().Foreground(lipgloss.Color("#6c757d"))
		dueStyle   = r.NewStyle().Foreground(lipgloss.Color("#5f9fb0"))
		priorities = map[models.Priority]lipgloss.Style{
			models.PriorityHigh:   r.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true),
			models.PriorityMedium: r.NewStyle().Foreground(lipgloss.Color("#f39c12")),
			models.PriorityLow:    r.NewStyle().Foreground(lipgloss.Color("#6c757d")),
		}
	)

	if len(tasks) == 0 {
		fmt.Fprintln(w, "nothing to do")
	}
	for _, t := range tasks {
		box, title := "[ ]", t.Title
		if t.Completed {
			box, title = "[x]", doneStyle.Render(t.Title)
		}
		line := fmt.Sprintf("%s %s %s %s", box, idStyle.Render(t.ID), priorities[t.Priority].Render(fmt.Sprintf("%-6s", t.Priority)), title)
		if t.DueDate != nil {
			line += " " + dueStyle.Render("due "+t.DueDate.String())
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%d total, %d active, %d completed\n", counts.Total, counts.Active, counts.Completed)
}
