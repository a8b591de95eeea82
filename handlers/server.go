// Package handlers exposes accounts and tasks as a JSON API.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"todolist/models"
	"todolist/session"
)

type Accounts interface {
	Register(ctx context.Context, username, email, password string) (models.Account, error)
	Login(ctx context.Context, email, password string, meta session.ClientMeta) (string, error)
	Authenticate(ctx context.Context, token string) (models.Account, error)
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, token string) error
}

type Todos interface {
	ListTodos(ctx context.Context, token string) ([]models.Task, error)
	GetTodo(ctx context.Context, token, id string) (models.Task, error)
	CreateTodo(ctx context.Context, token string, draft models.TaskDraft) (models.Task, error)
	UpdateTodo(ctx context.Context, token, id string, patch models.TaskPatch) (models.Task, error)
	DeleteTodo(ctx context.Context, token, id string) error
	ClearCompleted(ctx context.Context, token string) (int, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	accounts Accounts
	todos    Todos
	ready    Pinger
	log      *log.Logger
}

func New(accounts Accounts, todos Todos, ready Pinger, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{accounts: accounts, todos: todos, ready: ready, log: logger}
}

// Routes returns the API with request id, logging and panic recovery
// applied.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", h.RegisterUserHandler)
	mux.HandleFunc("POST /login", h.LoginHandler)
	mux.HandleFunc("POST /logout", h.LogOutHandler)

	mux.HandleFunc("GET /todos", h.requireAuth(h.Tasks))
	mux.HandleFunc("POST /todos", h.requireAuth(h.AddTaskHandler))
	mux.HandleFunc("POST /todos/clear-completed", h.requireAuth(h.ClearCompletedHandler))
	mux.HandleFunc("GET /todos/{id}", h.requireAuth(h.TaskHandler))
	mux.HandleFunc("PUT /todos/{id}", h.requireAuth(h.UpdateTaskHandler))
	mux.HandleFunc("DELETE /todos/{id}", h.requireAuth(h.DeleteTaskHandler))

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)

	var handler http.Handler = mux
	handler = Recover(h.log)(handler)
	handler = Logging(h.log)(handler)
	handler = WithRequestID(handler)
	return handler
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	if err := h.ready.Ping(ctx); err != nil {
		h.log.Warn("not ready", "err", err)
		writeError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
