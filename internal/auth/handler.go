package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/odyssey-rbac/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-rbac/internal/shared"
)

// AccountService is the behaviour the HTTP layer needs from Service.
type AccountService interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	ListUsers(ctx context.Context) ([]UserView, error)
	CreateUser(ctx context.Context, email, password string) (UserView, error)
	UpdatePassword(ctx context.Context, id, password string) error
	DeleteUser(ctx context.Context, id string) error
}

// Handler wires HTTP endpoints for login and user management.
type Handler struct {
	logger  *slog.Logger
	service AccountService
	gate    *Gate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service AccountService, gate *Gate) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, gate: gate}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAuth, h.gate.RequirePrimaryAdmin)
		r.Get("/users", h.listUsers)
		r.Post("/users", h.createUser)
		r.Put("/users/{id}/password", h.updatePassword)
		r.Delete("/users/{id}", h.deleteUser)
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, errInvalidInput, "Login failed")
		return
	}
	ctx := r.Context()
	if ip, err := httprate.KeyByIP(r); err == nil {
		ctx = shared.ContextWithClientIP(ctx, ip)
	}
	res, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logFailure("login", err)
		httpx.RespondError(w, err, "Login failed")
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logFailure("list users", err)
		httpx.RespondError(w, err, "Failed to load users")
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, errInvalidInput, "Failed to create user")
		return
	}
	user, err := h.service.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure("create user", err)
		httpx.RespondError(w, err, "Failed to create user")
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, errInvalidPassword, "Failed to update password")
		return
	}
	if err := h.service.UpdatePassword(r.Context(), chi.URLParam(r, "id"), req.Password); err != nil {
		h.logFailure("update password", err)
		httpx.RespondError(w, err, "Failed to update password")
		return
	}
	httpx.Message(w, http.StatusOK, "Password updated")
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logFailure("delete user", err)
		httpx.RespondError(w, err, "Failed to delete user")
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) logFailure(op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
		return
	}
	h.logger.Debug(op, slog.Any("error", err))
}
