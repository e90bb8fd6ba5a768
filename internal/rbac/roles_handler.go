package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-rbac/internal/platform/httpx"
)

// RolesHandler manages role endpoints and role permission assignment.
type RolesHandler struct {
	logger  *slog.Logger
	service *Service
	guard   Guard
}

// NewRolesHandler builds RolesHandler instance.
func NewRolesHandler(logger *slog.Logger, service *Service, guard Guard) *RolesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RolesHandler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers role routes.
func (h *RolesHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuth)
		r.Get("/", h.listRoles)
		r.Post("/", h.createRole)
		r.Put("/{id}", h.updateRole)
		r.Delete("/{id}", h.deleteRole)
		r.Get("/{id}/permissions", h.listPermissions)
		r.Put("/{id}/permissions", h.setPermissions)
	})
}

func (h *RolesHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		respondFailure(h.logger, w, "list roles", err, "Failed to load roles")
		return
	}
	httpx.JSON(w, http.StatusOK, roles)
}

func (h *RolesHandler) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, errInvalidBody, "Failed to create role")
		return
	}
	role, err := h.service.CreateRole(r.Context(), string(req.Name))
	if err != nil {
		respondFailure(h.logger, w, "create role", err, "Failed to create role")
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *RolesHandler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, errInvalidBody, "Failed to update role")
		return
	}
	role, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "id"), string(req.Name))
	if err != nil {
		respondFailure(h.logger, w, "update role", err, "Failed to update role")
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *RolesHandler) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondFailure(h.logger, w, "delete role", err, "Failed to delete role")
		return
	}
	httpx.NoContent(w)
}

func (h *RolesHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissionsForRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(h.logger, w, "list role permissions", err, "Failed to load permissions")
		return
	}
	httpx.JSON(w, http.StatusOK, perms)
}

func (h *RolesHandler) setPermissions(w http.ResponseWriter, r *http.Request) {
	var req rolePermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, errInvalidBody, "Failed to update permissions")
		return
	}
	if err := h.service.SetRolePermissions(r.Context(), chi.URLParam(r, "id"), req.PermissionIDs); err != nil {
		respondFailure(h.logger, w, "set role permissions", err, "Failed to update permissions")
		return
	}
	httpx.Message(w, http.StatusOK, "Permissions updated")
}
