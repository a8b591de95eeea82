package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"todolist/models"
)

// Memory keeps everything in maps. Each call holds the lock for its whole
// duration, so single-record operations are atomic.
type Memory struct {
	mu       sync.RWMutex
	tasks    map[string]models.Task
	order    []string
	accounts map[uuid.UUID]models.Account
	byEmail  map[string]uuid.UUID
}

func NewMemory() *Memory {
	return &Memory{
		tasks:    make(map[string]models.Task),
		accounts: make(map[uuid.UUID]models.Account),
		byEmail:  make(map[string]uuid.UUID),
	}
}

func (m *Memory) Insert(ctx context.Context, owner uuid.UUID, t models.Task) (models.Task, error) {
	if err := ctx.Err(); err != nil {
		return models.Task{}, err
	}
	ts := now()
	t.ID = uuid.NewString()
	t.OwnerID = owner
	t.CreatedAt = ts
	t.UpdatedAt = ts

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	m.order = append(m.order, t.ID)
	return t, nil
}

func (m *Memory) ListAll(ctx context.Context, owner uuid.UUID) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Task, 0)
	for _, id := range m.order {
		if t := m.tasks[id]; t.OwnerID == owner {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, owner uuid.UUID, id string) (models.Task, error) {
	if err := ctx.Err(); err != nil {
		return models.Task{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok || t.OwnerID != owner {
		return models.Task{}, models.ErrNotFound
	}
	return t, nil
}

func (m *Memory) Update(ctx context.Context, owner uuid.UUID, id string, patch models.TaskPatch) (models.Task, error) {
	if err := ctx.Err(); err != nil {
		return models.Task{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.OwnerID != owner {
		return models.Task{}, models.ErrNotFound
	}
	if patch.Empty() {
		return t, nil
	}
	t = patch.Apply(t)
	t.UpdatedAt = now()
	m.tasks[id] = t
	return t, nil
}

func (m *Memory) Delete(ctx context.Context, owner uuid.UUID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.OwnerID != owner {
		return models.ErrNotFound
	}
	delete(m.tasks, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) CreateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}
	email := strings.ToLower(a.Email)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byEmail[email]; taken {
		return models.Account{}, models.ErrDuplicateEmail
	}
	a.ID = uuid.New()
	a.Email = email
	a.CreatedAt = now()
	m.accounts[a.ID] = a
	m.byEmail[email] = a.ID
	return a, nil
}

func (m *Memory) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return models.Account{}, models.ErrNotFound
	}
	return m.accounts[id], nil
}

func (m *Memory) AccountByID(ctx context.Context, id uuid.UUID) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return models.Account{}, models.ErrNotFound
	}
	return a, nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Migrate(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
