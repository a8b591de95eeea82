package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"todolist/models"
)

// ErrBusy is returned when a change is requested while another one is
// still waiting for the server.
var ErrBusy = errors.New("another change is in progress")

// Remote is the part of API a View needs.
type Remote interface {
	List(ctx context.Context, token string) ([]models.Task, error)
	Create(ctx context.Context, token string, draft models.TaskDraft) (models.Task, error)
	Update(ctx context.Context, token, id string, patch models.TaskPatch) (models.Task, error)
	Delete(ctx context.Context, token, id string) error
}

// View holds one session's local task list. Local state only changes after
// the server confirmed a change.
type View struct {
	remote Remote
	token  string
	busy   atomic.Bool

	mu     sync.Mutex
	tasks  []models.Task
	filter Filter
}

func NewView(remote Remote, token string) *View {
	return &View{remote: remote, token: token, filter: FilterAll}
}

func (v *View) begin() (done func(), err error) {
	if !v.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { v.busy.Store(false) }, nil
}

// Busy reports whether a change is outstanding.
func (v *View) Busy() bool { return v.busy.Load() }

func (v *View) Refresh(ctx context.Context) error {
	done, err := v.begin()
	if err != nil {
		return err
	}
	defer done()

	tasks, err := v.remote.List(ctx, v.token)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.tasks = tasks
	v.mu.Unlock()
	return nil
}

// Add creates an open Medium-priority task. A blank title sends nothing.
func (v *View) Add(ctx context.Context, title string) (models.Task, error) {
	if strings.TrimSpace(title) == "" {
		return models.Task{}, models.Invalid("title", "must not be empty")
	}
	done, err := v.begin()
	if err != nil {
		return models.Task{}, err
	}
	defer done()

	task, err := v.remote.Create(ctx, v.token, models.TaskDraft{
		Title:    title,
		DueDate:  models.ClearDate(),
		Priority: models.PriorityMedium,
	})
	if err != nil {
		return models.Task{}, err
	}
	v.mu.Lock()
	v.tasks = MergeOne(v.tasks, task)
	v.mu.Unlock()
	return task, nil
}

func (v *View) Toggle(ctx context.Context, id string) (models.Task, error) {
	done, err := v.begin()
	if err != nil {
		return models.Task{}, err
	}
	defer done()

	current, ok := v.find(id)
	if !ok {
		return models.Task{}, models.ErrNotFound
	}
	completed := !current.Completed
	return v.update(ctx, id, models.TaskPatch{Completed: &completed})
}

// Edit sends title, due date and priority together. A nil due date clears
// it.
func (v *View) Edit(ctx context.Context, id, title string, due *models.Date, priority models.Priority) (models.Task, error) {
	if strings.TrimSpace(title) == "" {
		return models.Task{}, models.Invalid("title", "must not be empty")
	}
	done, err := v.begin()
	if err != nil {
		return models.Task{}, err
	}
	defer done()

	patch := models.TaskPatch{Title: &title, DueDate: models.ClearDate(), Priority: &priority}
	if due != nil {
		patch.DueDate = models.SetDate(*due)
	}
	return v.update(ctx, id, patch)
}

func (v *View) update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	task, err := v.remote.Update(ctx, v.token, id, patch)
	if err != nil {
		return models.Task{}, err
	}
	v.mu.Lock()
	v.tasks = MergeOne(v.tasks, task)
	v.mu.Unlock()
	return task, nil
}

func (v *View) Delete(ctx context.Context, id string) error {
	done, err := v.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := v.remote.Delete(ctx, v.token, id); err != nil {
		return err
	}
	v.mu.Lock()
	v.tasks = RemoveOne(v.tasks, id)
	v.mu.Unlock()
	return nil
}

// ClearCompleted deletes the completed tasks one request at a time and
// drops each from the local list once the server confirmed it. Tasks the
// server no longer knows are dropped without being counted. The first other
// failure stops the sweep.
func (v *View) ClearCompleted(ctx context.Context) (int, error) {
	done, err := v.begin()
	if err != nil {
		return 0, err
	}
	defer done()

	v.mu.Lock()
	completed := ApplyFilter(v.tasks, FilterCompleted)
	v.mu.Unlock()

	removed := 0
	for _, t := range completed {
		err := v.remote.Delete(ctx, v.token, t.ID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return removed, err
		}
		v.mu.Lock()
		v.tasks = RemoveOne(v.tasks, t.ID)
		v.mu.Unlock()
		if err == nil {
			removed++
		}
	}
	return removed, nil
}

// Reorder moves a task within the full local list. The order is not sent
// to the server. It reports whether anything moved.
func (v *View) Reorder(from, to int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if from < 0 || from >= len(v.tasks) || to < 0 || to >= len(v.tasks) {
		return false
	}
	v.tasks = Reorder(v.tasks, from, to)
	return from != to
}

func (v *View) SetFilter(f Filter) {
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
}

func (v *View) Filter() Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// Visible returns the tasks passing the current filter.
func (v *View) Visible() []models.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ApplyFilter(v.tasks, v.filter)
}

// Tasks returns a copy of the whole local list.
func (v *View) Tasks() []models.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Task(nil), v.tasks...)
}

func (v *View) Counts() models.Counts {
	v.mu.Lock()
	defer v.mu.Unlock()
	return CountsOf(v.tasks)
}

func (v *View) find(id string) (models.Task, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, t := range v.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}
