package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"todolist/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash BLOB NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	title      TEXT NOT NULL CHECK (length(title) > 0),
	completed  INTEGER NOT NULL DEFAULT 0,
	due_date   TEXT,
	priority   TEXT NOT NULL DEFAULT 'Medium' CHECK (priority IN ('High', 'Medium', 'Low')),
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS tasks_user_created_idx ON tasks (user_id, created_at);
`

// Fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite stores everything in one local file.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func sqliteDate(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTask(row rowScanner) (models.Task, error) {
	var (
		t                models.Task
		owner            string
		due              sql.NullString
		created, updated string
	)
	if err := row.Scan(&t.ID, &owner, &t.Title, &t.Completed, &due, &t.Priority, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, models.ErrNotFound
		}
		return models.Task{}, err
	}

	var err error
	if t.OwnerID, err = uuid.Parse(owner); err != nil {
		return models.Task{}, fmt.Errorf("task %s owner: %w", t.ID, err)
	}
	if due.Valid {
		d, err := models.ParseDate(due.String)
		if err != nil {
			return models.Task{}, fmt.Errorf("task %s due date: %w", t.ID, err)
		}
		t.DueDate = &d
	}
	if t.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
		return models.Task{}, fmt.Errorf("task %s created_at: %w", t.ID, err)
	}
	if t.UpdatedAt, err = time.Parse(sqliteTimeLayout, updated); err != nil {
		return models.Task{}, fmt.Errorf("task %s updated_at: %w", t.ID, err)
	}
	return t, nil
}

func (s *SQLite) Insert(ctx context.Context, owner uuid.UUID, t models.Task) (models.Task, error) {
	ts := formatTime(now())
	stmt := "INSERT INTO tasks (" + taskColumns + ") VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?7) RETURNING " + taskColumns
	row := s.db.QueryRowContext(ctx, stmt, uuid.NewString(), owner.String(), t.Title, t.Completed, sqliteDate(t.DueDate), string(t.Priority), ts)
	created, err := scanSQLiteTask(row)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

func (s *SQLite) ListAll(ctx context.Context, owner uuid.UUID) ([]models.Task, error) {
	stmt := "SELECT " + taskColumns + " FROM tasks WHERE user_id = ?1 ORDER BY created_at, rowid"
	rows, err := s.db.QueryContext(ctx, stmt, owner.String())
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanSQLiteTask(rows)
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

func (s *SQLite) Get(ctx context.Context, owner uuid.UUID, id string) (models.Task, error) {
	if !validID(id) {
		return models.Task{}, models.ErrNotFound
	}
	stmt := "SELECT " + taskColumns + " FROM tasks WHERE id = ?1 AND user_id = ?2"
	t, err := scanSQLiteTask(s.db.QueryRowContext(ctx, stmt, id, owner.String()))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, err
}

func (s *SQLite) Update(ctx context.Context, owner uuid.UUID, id string, patch models.TaskPatch) (models.Task, error) {
	if !validID(id) {
		return models.Task{}, models.ErrNotFound
	}
	if patch.Empty() {
		return s.Get(ctx, owner, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = ?%d", col, len(args)))
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Completed != nil {
		set("completed", *patch.Completed)
	}
	if patch.DueDate.Set {
		set("due_date", sqliteDate(patch.DueDate.Date))
	}
	if patch.Priority != nil {
		set("priority", string(*patch.Priority))
	}
	set("updated_at", formatTime(now()))
	args = append(args, id, owner.String())

	stmt := fmt.Sprintf("UPDATE tasks SET %s WHERE id = ?%d AND user_id = ?%d RETURNING %s",
		strings.Join(sets, ", "), len(args)-1, len(args), taskColumns)
	t, err := scanSQLiteTask(s.db.QueryRowContext(ctx, stmt, args...))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return t, err
}

func (s *SQLite) Delete(ctx context.Context, owner uuid.UUID, id string) error {
	if !validID(id) {
		return models.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?1 AND user_id = ?2", id, owner.String())
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanSQLiteAccount(row rowScanner) (models.Account, error) {
	var (
		a           models.Account
		id, created string
	)
	if err := row.Scan(&id, &a.Username, &a.Email, &a.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, models.ErrNotFound
		}
		return models.Account{}, err
	}
	var err error
	if a.ID, err = uuid.Parse(id); err != nil {
		return models.Account{}, fmt.Errorf("user id: %w", err)
	}
	if a.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
		return models.Account{}, fmt.Errorf("user %s created_at: %w", id, err)
	}
	return a, nil
}

func (s *SQLite) CreateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	stmt := "INSERT INTO users (" + accountColumns + ") VALUES (?1, ?2, ?3, ?4, ?5) RETURNING " + accountColumns
	row := s.db.QueryRowContext(ctx, stmt, uuid.NewString(), a.Username, strings.ToLower(a.Email), a.PasswordHash, formatTime(now()))
	created, err := scanSQLiteAccount(row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.Account{}, models.ErrDuplicateEmail
		}
		return models.Account{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (s *SQLite) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	stmt := "SELECT " + accountColumns + " FROM users WHERE email = ?1"
	a, err := scanSQLiteAccount(s.db.QueryRowContext(ctx, stmt, strings.ToLower(email)))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.Account{}, fmt.Errorf("get user by email: %w", err)
	}
	return a, err
}

func (s *SQLite) AccountByID(ctx context.Context, id uuid.UUID) (models.Account, error) {
	stmt := "SELECT " + accountColumns + " FROM users WHERE id = ?1"
	a, err := scanSQLiteAccount(s.db.QueryRowContext(ctx, stmt, id.String()))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.Account{}, fmt.Errorf("get user by id: %w", err)
	}
	return a, err
}
