// Package store persists accounts and tasks. Every task operation takes the
// owning account explicitly; a task owned by someone else is reported as
// models.ErrNotFound.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"todolist/models"
)

type TaskStore interface {
	// Insert assigns the id and timestamps and returns the stored record.
	Insert(ctx context.Context, owner uuid.UUID, t models.Task) (models.Task, error)
	// ListAll returns every task of owner, oldest first.
	ListAll(ctx context.Context, owner uuid.UUID) ([]models.Task, error)
	Get(ctx context.Context, owner uuid.UUID, id string) (models.Task, error)
	// Update applies only the supplied fields of patch.
	Update(ctx context.Context, owner uuid.UUID, id string, patch models.TaskPatch) (models.Task, error)
	Delete(ctx context.Context, owner uuid.UUID, id string) error
}

type AccountStore interface {
	// CreateAccount fails with models.ErrDuplicateEmail when the email is taken.
	CreateAccount(ctx context.Context, a models.Account) (models.Account, error)
	AccountByEmail(ctx context.Context, email string) (models.Account, error)
	AccountByID(ctx context.Context, id uuid.UUID) (models.Account, error)
}

// Store is a complete backend.
type Store interface {
	TaskStore
	AccountStore
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// validID rejects ids that could never have been issued so backends with
// typed id columns never see them.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func now() time.Time {
	return time.Now().UTC()
}
