// Package todo implements the task lifecycle for an authenticated session.
// Every operation resolves the session token first and then works only on
// tasks owned by that account.
package todo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todolist/models"
	"todolist/store"
	"todolist/utils"
)

const DefaultStoreTimeout = 10 * time.Second

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Account, error)
}

type Controller struct {
	auth    Authenticator
	tasks   store.TaskStore
	timeout time.Duration
	log     *log.Logger
	locks   keyedMutex
}

func NewController(auth Authenticator, tasks store.TaskStore, timeout time.Duration, logger *log.Logger) *Controller {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{auth: auth, tasks: tasks, timeout: timeout, log: logger}
}

func (c *Controller) owner(ctx context.Context, token string) (uuid.UUID, error) {
	account, err := c.auth.Authenticate(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	return account.ID, nil
}

// withStore runs fn under the store timeout.
func withStore[T any](ctx context.Context, c *Controller, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return fn(ctx)
}

func (c *Controller) ListTodos(ctx context.Context, token string) ([]models.Task, error) {
	owner, err := c.owner(ctx, token)
	if err != nil {
		return nil, err
	}
	tasks, err := withStore(ctx, c, func(ctx context.Context) ([]models.Task, error) {
		return c.tasks.ListAll(ctx, owner)
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (c *Controller) GetTodo(ctx context.Context, token, id string) (models.Task, error) {
	owner, err := c.owner(ctx, token)
	if err != nil {
		return models.Task{}, err
	}
	return withStore(ctx, c, func(ctx context.Context) (models.Task, error) {
		return c.tasks.Get(ctx, owner, id)
	})
}

// AddTodo creates an open Medium-priority task without a due date.
func (c *Controller) AddTodo(ctx context.Context, token, title string) (models.Task, error) {
	return c.CreateTodo(ctx, token, models.TaskDraft{Title: title})
}

// CreateTodo stores draft, defaulting an absent priority to Medium.
func (c *Controller) CreateTodo(ctx context.Context, token string, draft models.TaskDraft) (models.Task, error) {
	owner, err := c.owner(ctx, token)
	if err != nil {
		return models.Task{}, err
	}

	title, err := utils.ValidateTitle(draft.Title)
	if err != nil {
		return models.Task{}, err
	}
	priority := models.PriorityMedium
	if draft.Priority != "" {
		if priority, err = models.ParsePriority(string(draft.Priority)); err != nil {
			return models.Task{}, err
		}
	}

	task, err := withStore(ctx, c, func(ctx context.Context) (models.Task, error) {
		return c.tasks.Insert(ctx, owner, models.Task{
			Title:     title,
			Completed: draft.Completed,
			DueDate:   draft.DueDate.Date,
			Priority:  priority,
		})
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	c.log.Debug("task created", "user_id", owner, "task_id", task.ID)
	return task, nil
}

// ToggleComplete flips the completion flag. Concurrent toggles of the same
// task within this process are applied one after another.
func (c *Controller) ToggleComplete(ctx context.Context, token, id string) (models.Task, error) {
	owner, err := c.owner(ctx, token)
	if err != nil {
		return models.Task{}, err
	}
	defer c.locks.lock(owner.String() + "/" + id)()

	current, err := withStore(ctx, c, func(ctx context.Context) (models.Task, error) {
		return c.tasks.Get(ctx, owner, id)
	})
	if err != nil {
		return models.Task{}, err
	}
	completed := !current.Completed
	return withStore(ctx, c, func(ctx context.Context) (models.Task, error) {
		return c.tasks.Update(ctx, owner, id, models.TaskPatch{Completed: &completed})
	})
}

// EditTodo replaces title, due date and priority together. A nil due date
// clears it. Nothing is written unless all three values are valid.
func (c *Controller) EditTodo(ctx context.Context, token, id, title string, due *models.Date, priority models.Priority) (models.Task, error) {
	patch := models.TaskPatch{
		Title:    &title,
		DueDate:  models.ClearDate(),
		Priority: &priority,
	}
	if due != nil {
		patch.DueDate = models.SetDate(*due)
	}
	return c.UpdateTodo(ctx, token, id, patch)
}

// UpdateTodo applies the supplied fields of patch. A patch without any
// field is a validation error.
func (c *Controller) UpdateTodo(ctx context.Context, token, id string, patch models.TaskPatch) (models.Task, error) {
	owner, err := c.owner(ctx, token)
	if err != nil {
		return models.Task{}, err
	}

	if patch.Title != nil {
		title, err := utils.ValidateTitle(*patch.Title)
		if err != nil {
			return models.Task{}, err
		}
		patch.Title = &title
	}
	if patch.Priority != nil {
		p, err := models.ParsePriority(string(*patch.Priority))
		if err != nil {
			return models.Task{}, err
		}
		patch.Priority = &p
	}

	if patch.Empty() {
		return models.Task{}, models.Invalid("body", "must set at least one of title, completed, dueDate, priority")
	}
	if patch.Completed != nil {
		defer c.locks.lock(owner.String() + "/" + id)()
	}
	return withStore(ctx, c, func(ctx context.Context) (models.Task, error) {
		return c.tasks.Update(ctx, owner, id, patch)
	})
}

func (c *Controller) DeleteTodo(ctx context.Context, token, id string) error {
	owner, err := c.owner(ctx, token)
	if err != nil {
		return err
	}
	_, err = withStore(ctx, c, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.tasks.Delete(ctx, owner, id)
	})
	return err
}

// ClearCompleted deletes every completed task of the session's account one
// by one. It is not atomic: on failure it returns the number already
// removed together with the error. Tasks that vanished in the meantime are
// skipped.
func (c *Controller) ClearCompleted(ctx context.Context, token string) (int, error) {
	owner, err := c.owner(ctx, token)
	if err != nil {
		return 0, err
	}
	tasks, err := withStore(ctx, c, func(ctx context.Context) ([]models.Task, error) {
		return c.tasks.ListAll(ctx, owner)
	})
	if err != nil {
		return 0, fmt.Errorf("list tasks: %w", err)
	}

	removed := 0
	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		_, err := withStore(ctx, c, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.tasks.Delete(ctx, owner, t.ID)
		})
		switch {
		case errors.Is(err, models.ErrNotFound):
			continue
		case err != nil:
			c.log.Warn("clear completed interrupted", "user_id", owner, "removed", removed, "err", err)
			return removed, fmt.Errorf("delete task %s: %w", t.ID, err)
		}
		removed++
	}
	c.log.Info("cleared completed tasks", "user_id", owner, "removed", removed)
	return removed, nil
}
