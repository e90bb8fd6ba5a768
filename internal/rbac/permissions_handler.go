package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-rbac/internal/platform/httpx"
)

// PermissionsHandler manages permission endpoints.
type PermissionsHandler struct {
	logger  *slog.Logger
	service *Service
	guard   Guard
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, guard Guard) *PermissionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PermissionsHandler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuth)
		r.Get("/", h.listPermissions)
		r.Post("/", h.createPermission)
		r.Put("/{id}", h.updatePermission)
		r.Delete("/{id}", h.deletePermission)
		r.Get("/{id}/roles", h.listRoles)
	})
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		respondFailure(h.logger, w, "list permissions", err, "Failed to load permissions")
		return
	}
	httpx.JSON(w, http.StatusOK, perms)
}

func (h *PermissionsHandler) createPermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, errInvalidBody, "Failed to create permission")
		return
	}
	perm, err := h.service.CreatePermission(r.Context(), string(req.Name), string(req.Description))
	if err != nil {
		respondFailure(h.logger, w, "create permission", err, "Failed to create permission")
		return
	}
	httpx.JSON(w, http.StatusCreated, perm)
}

func (h *PermissionsHandler) updatePermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, errInvalidBody, "Failed to update permission")
		return
	}
	perm, err := h.service.UpdatePermission(r.Context(), chi.URLParam(r, "id"), string(req.Name), string(req.Description))
	if err != nil {
		respondFailure(h.logger, w, "update permission", err, "Failed to update permission")
		return
	}
	httpx.JSON(w, http.StatusOK, perm)
}

func (h *PermissionsHandler) deletePermission(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePermission(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondFailure(h.logger, w, "delete permission", err, "Failed to delete permission")
		return
	}
	httpx.NoContent(w)
}

func (h *PermissionsHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRolesForPermission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(h.logger, w, "list permission roles", err, "Failed to load roles")
		return
	}
	httpx.JSON(w, http.StatusOK, roles)
}
