package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rhuss/basicgate/pkg/auth"
	"github.com/rhuss/basicgate/pkg/auth/token"
	"github.com/rhuss/basicgate/pkg/password"
	"github.com/rhuss/basicgate/pkg/transport"
	"github.com/rhuss/basicgate/pkg/userstore"
)

// maxBodySize bounds request bodies on the JSON endpoints.
const maxBodySize = 1 << 20

// meID addresses the authenticated caller in /users/{id}.
const meID = "me"

type handlers struct {
	users  userstore.Repository
	tokens *token.Scheme
}

// CreateUserRequest is the request body for POST /api/v1/users.
type CreateUserRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// TokenResponse is the response body for POST /api/v1/auth/token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// StatsResponse is the response body for GET /api/v1/stats.
type StatsResponse struct {
	Users int `json:"users"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if hc, ok := h.users.(healthChecker); ok {
		if err := hc.HealthCheck(r.Context()); err != nil {
			slog.Warn("health check failed", "backend", h.users.Backend(), "error", err)
			transport.WriteError(w, http.StatusServiceUnavailable, "Store unavailable")
			return
		}
	}
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	n, err := h.users.Count(r.Context())
	if err != nil {
		slog.Error("counting users", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	transport.WriteJSON(w, http.StatusOK, StatsResponse{Users: n})
}

func (h *handlers) unauthorized(w http.ResponseWriter, r *http.Request) {
	transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
}

func (h *handlers) forbidden(w http.ResponseWriter, r *http.Request) {
	transport.WriteError(w, http.StatusForbidden, "Forbidden")
}

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		slog.Error("listing users", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if users == nil {
		users = []*userstore.User{}
	}
	transport.WriteJSON(w, http.StatusOK, users)
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == meID {
		p := auth.PrincipalFromContext(r.Context())
		if p == nil {
			transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		id = p.ID()
	}

	u, err := h.users.Get(r.Context(), id)
	if errors.Is(err, userstore.ErrNotFound) {
		transport.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("reading user", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	transport.WriteJSON(w, http.StatusOK, u)
}

func (h *handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		transport.WriteError(w, http.StatusBadRequest, "Email is required")
		return
	}

	u, err := userstore.NewUser(req.Email, req.Password)
	switch {
	case errors.Is(err, password.ErrEmpty):
		transport.WriteError(w, http.StatusBadRequest, "Password is required")
		return
	case errors.Is(err, password.ErrTooLong):
		transport.WriteError(w, http.StatusBadRequest, "Password is too long")
		return
	case err != nil:
		slog.Error("creating user", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	u.FirstName = req.FirstName
	u.LastName = req.LastName

	if err := h.users.Save(r.Context(), u); err != nil {
		slog.Error("saving user", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Location", "/api/v1/users/"+u.ID())
	transport.WriteJSON(w, http.StatusCreated, u)
}

func (h *handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	err := h.users.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, userstore.ErrNotFound) {
		transport.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("deleting user", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) issueToken(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	signed, expires, err := h.tokens.Issue(p)
	if err != nil {
		slog.Error("issuing token", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	transport.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   expires.UTC(),
	})
}
