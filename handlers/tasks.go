package handlers

import (
	"net/http"

	"todolist/models"
	"todolist/utils"
)

// Tasks lists every task of the session's account.
func (h *Handlers) Tasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.todos.ListTodos(r.Context(), utils.AuthToken(r))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) TaskHandler(w http.ResponseWriter, r *http.Request) {
	task, err := h.todos.GetTodo(r.Context(), utils.AuthToken(r), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handlers) AddTaskHandler(w http.ResponseWriter, r *http.Request) {
	var draft models.TaskDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.todos.CreateTodo(r.Context(), utils.AuthToken(r), draft)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTaskHandler applies a partial update; fields absent from the body
// are left alone and "dueDate": null clears the due date.
func (h *Handlers) UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.todos.UpdateTodo(r.Context(), utils.AuthToken(r), r.PathValue("id"), patch)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handlers) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.todos.DeleteTodo(r.Context(), utils.AuthToken(r), r.PathValue("id")); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ClearCompletedHandler(w http.ResponseWriter, r *http.Request) {
	removed, err := h.todos.ClearCompleted(r.Context(), utils.AuthToken(r))
	if err != nil {
		status, msg := errorStatus(err)
		if status != http.StatusInternalServerError {
			writeError(w, status, msg)
			return
		}
		h.log.Error("clear completed failed", "rid", RequestIDFromContext(r.Context()), "removed", removed, "err", err)
		writeJSON(w, status, map[string]any{"error": msg, "removed": removed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
