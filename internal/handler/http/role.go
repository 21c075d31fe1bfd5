package http

import (
	"log/slog"
	"net/http"

	"github.com/vitorbastosbn/nutricionista/internal/domain"
	"github.com/vitorbastosbn/nutricionista/internal/service"
	"github.com/vitorbastosbn/nutricionista/pkg/httputil"
	"github.com/vitorbastosbn/nutricionista/pkg/pagination"
)

// RoleHandler handles HTTP requests for role management.
type RoleHandler struct {
	service *service.RoleService
	logger  *slog.Logger
}

// NewRoleHandler creates a new role HTTP handler.
func NewRoleHandler(svc *service.RoleService, logger *slog.Logger) *RoleHandler {
	return &RoleHandler{service: svc, logger: logger}
}

// Create handles POST /api/v1/roles
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	role, err := h.service.CreateRole(r.Context(), service.RoleInput{Name: req.Name, Description: req.Description})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: newRoleResponse(*role)})
}

// List handles GET /api/v1/roles
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.RoleFilter{
		Name:        q.Get("name"),
		Description: q.Get("description"),
		Search:      q.Get("search"),
	}
	page := pagination.FromRequest(r, domain.RoleSortFields...)

	roles, total, err := h.service.ListRoles(r.Context(), filter, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	items := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		items = append(items, newRoleResponse(role))
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(items, total, page))
}

// Get handles GET /api/v1/roles/{id}
func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newRoleResponse(*role)})
}

// Update handles PUT /api/v1/roles/{id}
func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req roleRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	role, err := h.service.UpdateRole(r.Context(), id, service.RoleInput{Name: req.Name, Description: req.Description})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newRoleResponse(*role)})
}

// Delete handles DELETE /api/v1/roles/{id}
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
