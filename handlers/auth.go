package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"todolist/session"
	"todolist/utils"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordStrength string    `json:"passwordStrength"`
}

func (h *Handlers) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:               account.ID,
		Username:         account.Username,
		Email:            account.Email,
		PasswordStrength: utils.PasswordStrength(req.Password),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.accounts.Login(r.Context(), req.Email, req.Password, session.ClientMeta{
		UserAgent: utils.GetUserAgent(r),
		IPAddress: utils.GetIP(r),
	})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// LogOutHandler ends the presented session, or every session of its
// account with ?all=1.
func (h *Handlers) LogOutHandler(w http.ResponseWriter, r *http.Request) {
	logout := h.accounts.Logout
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		logout = h.accounts.LogoutAll
	}
	if err := logout(r.Context(), utils.AuthToken(r)); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
