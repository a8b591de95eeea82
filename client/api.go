package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"todolist/models"
)

// StatusError is a non-2xx response that does not map onto a known error.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// API talks to the todolist HTTP server. The session token is passed to
// every call.
type API struct {
	baseURL string
	http    *http.Client
}

func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type Registration struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordStrength string    `json:"passwordStrength"`
}

func (a *API) Register(ctx context.Context, username, email, password string) (Registration, error) {
	var out Registration
	err := a.do(ctx, http.MethodPost, "/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

func (a *API) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := a.do(ctx, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out.Token, err
}

func (a *API) Logout(ctx context.Context, token string) error {
	return a.do(ctx, http.MethodPost, "/logout", token, nil, nil)
}

// LogoutAll ends every session of the token's account.
func (a *API) LogoutAll(ctx context.Context, token string) error {
	return a.do(ctx, http.MethodPost, "/logout?all=1", token, nil, nil)
}

func (a *API) List(ctx context.Context, token string) ([]models.Task, error) {
	var out []models.Task
	err := a.do(ctx, http.MethodGet, "/todos", token, nil, &out)
	return out, err
}

func (a *API) Get(ctx context.Context, token, id string) (models.Task, error) {
	var out models.Task
	err := a.do(ctx, http.MethodGet, "/todos/"+url.PathEscape(id), token, nil, &out)
	return out, err
}

func (a *API) Create(ctx context.Context, token string, draft models.TaskDraft) (models.Task, error) {
	var out models.Task
	err := a.do(ctx, http.MethodPost, "/todos", token, draft, &out)
	return out, err
}

func (a *API) Update(ctx context.Context, token, id string, patch models.TaskPatch) (models.Task, error) {
	var out models.Task
	err := a.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), token, patch, &out)
	return out, err
}

func (a *API) Delete(ctx context.Context, token, id string) error {
	return a.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), token, nil, nil)
}

// ClearCompleted asks the server to sweep completed tasks in one request.
func (a *API) ClearCompleted(ctx context.Context, token string) (int, error) {
	var out struct {
		Removed int `json:"removed"`
	}
	err := a.do(ctx, http.MethodPost, "/todos/clear-completed", token, nil, &out)
	return out.Removed, err
}

func (a *API) do(ctx context.Context, method, path, token string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return responseError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// responseError maps a failed response back onto the models sentinels.
func responseError(code int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}

	switch code {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", models.ErrValidation, msg)
	case http.StatusConflict:
		return models.ErrDuplicateEmail
	case http.StatusUnauthorized:
		if msg == models.ErrInvalidCredentials.Error() {
			return models.ErrInvalidCredentials
		}
		return models.ErrUnauthorized
	case http.StatusNotFound:
		return models.ErrNotFound
	}
	return &StatusError{Code: code, Message: msg}
}
