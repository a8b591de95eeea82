package models

import (
	"time"

	"github.com/google/uuid"
)

// Task is one to-do item. OwnerID never leaves the server.
type Task struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"-" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Completed bool      `json:"completed" db:"completed"`
	DueDate   *Date     `json:"dueDate" db:"due_date"`
	Priority  Priority  `json:"priority" db:"priority"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TaskPatch carries the fields of a partial update. Nil pointers and an
// unset DueDate leave the stored value alone.
type TaskPatch struct {
	Title     *string   `json:"title,omitempty"`
	Completed *bool     `json:"completed,omitempty"`
	DueDate   DatePatch `json:"dueDate,omitzero"`
	Priority  *Priority `json:"priority,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Completed == nil && !p.DueDate.Set && p.Priority == nil
}

// Apply returns t with the supplied fields of p copied over it.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.DueDate.Set {
		t.DueDate = p.DueDate.Date
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	return t
}

// TaskDraft is the body of a create request.
type TaskDraft struct {
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	DueDate   DatePatch `json:"dueDate,omitzero"`
	Priority  Priority  `json:"priority,omitempty"`
}
