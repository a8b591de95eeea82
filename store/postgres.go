package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"todolist/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	username      TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash BYTEA NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tasks (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	title      TEXT NOT NULL CHECK (length(title) > 0),
	completed  BOOLEAN NOT NULL DEFAULT false,
	due_date   DATE,
	priority   TEXT NOT NULL DEFAULT 'Medium' CHECK (priority IN ('High', 'Medium', 'Low')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS tasks_user_created_idx ON tasks (user_id, created_at);
`

const taskColumns = "id, user_id, title, completed, due_date, priority, created_at, updated_at"

type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

func scanTask(row pgx.Row) (models.Task, error) {
	var (
		t   models.Task
		due *time.Time
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Completed, &due, &t.Priority, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, models.ErrNotFound
		}
		return models.Task{}, err
	}
	if due != nil {
		d := models.DateOf(*due)
		t.DueDate = &d
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func dateArg(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.Time()
}

func (p *Postgres) Insert(ctx context.Context, owner uuid.UUID, t models.Task) (models.Task, error) {
	ts := now()
	stmt := "INSERT INTO tasks (" + taskColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING " + taskColumns
	row := p.db.QueryRow(ctx, stmt, uuid.New(), owner, t.Title, t.Completed, dateArg(t.DueDate), t.Priority, ts)
	created, err := scanTask(row)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

func (p *Postgres) ListAll(ctx context.Context, owner uuid.UUID) ([]models.Task, error) {
	stmt := "SELECT " + taskColumns + " FROM tasks WHERE user_id = $1 ORDER BY created_at, id"
	rows, err := p.db.Query(ctx, stmt, owner)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (p *Postgres) Get(ctx context.Context, owner uuid.UUID, id string) (models.Task, error) {
	if !validID(id) {
		return models.Task{}, models.ErrNotFound
	}
	stmt := "SELECT " + taskColumns + " FROM tasks WHERE id = $1 AND user_id = $2"
	t, err := scanTask(p.db.QueryRow(ctx, stmt, id, owner))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, err
}

func (p *Postgres) Update(ctx context.Context, owner uuid.UUID, id string, patch models.TaskPatch) (models.Task, error) {
	if !validID(id) {
		return models.Task{}, models.ErrNotFound
	}
	if patch.Empty() {
		return p.Get(ctx, owner, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Completed != nil {
		set("completed", *patch.Completed)
	}
	if patch.DueDate.Set {
		set("due_date", dateArg(patch.DueDate.Date))
	}
	if patch.Priority != nil {
		set("priority", *patch.Priority)
	}
	set("updated_at", now())
	args = append(args, id, owner)

	stmt := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d AND user_id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args)-1, len(args), taskColumns)
	t, err := scanTask(p.db.QueryRow(ctx, stmt, args...))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return t, err
}

func (p *Postgres) Delete(ctx context.Context, owner uuid.UUID, id string) error {
	if !validID(id) {
		return models.ErrNotFound
	}
	tag, err := p.db.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, owner)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

const accountColumns = "id, username, email, password_hash, created_at"

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, models.ErrNotFound
		}
		return models.Account{}, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

func (p *Postgres) CreateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	stmt := "INSERT INTO users (" + accountColumns + ") VALUES ($1, $2, $3, $4, $5) RETURNING " + accountColumns
	created, err := scanAccount(p.db.QueryRow(ctx, stmt, uuid.New(), a.Username, strings.ToLower(a.Email), a.PasswordHash, now()))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.Account{}, models.ErrDuplicateEmail
		}
		return models.Account{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (p *Postgres) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	stmt := "SELECT " + accountColumns + " FROM users WHERE email = $1"
	a, err := scanAccount(p.db.QueryRow(ctx, stmt, strings.ToLower(email)))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.Account{}, fmt.Errorf("get user by email: %w", err)
	}
	return a, err
}

func (p *Postgres) AccountByID(ctx context.Context, id uuid.UUID) (models.Account, error) {
	stmt := "SELECT " + accountColumns + " FROM users WHERE id = $1"
	a, err := scanAccount(p.db.QueryRow(ctx, stmt, id))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.Account{}, fmt.Errorf("get user by id: %w", err)
	}
	return a, err
}
