package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vitorbastosbn/nutricionista/internal/domain"
	"github.com/vitorbastosbn/nutricionista/internal/service"
	apperrors "github.com/vitorbastosbn/nutricionista/pkg/errors"
	"github.com/vitorbastosbn/nutricionista/pkg/httputil"
	"github.com/vitorbastosbn/nutricionista/pkg/middleware"
	"github.com/vitorbastosbn/nutricionista/pkg/pagination"
)

// UserHandler handles HTTP requests for user endpoints. The target user is
// the caller on /me routes and the {id} path parameter elsewhere.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// --- /me ---

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, callerID(r))
}

// UpdateMe handles PUT /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, callerID(r))
}

// UpdateMyAddress handles PUT /api/v1/users/me/address
func (h *UserHandler) UpdateMyAddress(w http.ResponseWriter, r *http.Request) {
	h.updateAddress(w, r, callerID(r))
}

// UpdateMyContact handles PUT /api/v1/users/me/contact
func (h *UserHandler) UpdateMyContact(w http.ResponseWriter, r *http.Request) {
	h.updateContact(w, r, callerID(r))
}

// DeleteMe handles DELETE /api/v1/users/me
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, callerID(r))
}

// --- /{id} ---

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.UserFilter{
		FullName: q.Get("full_name"),
		Email:    q.Get("email"),
		Search:   q.Get("search"),
	}
	page := pagination.FromRequest(r, domain.UserSortFields...)

	users, total, err := h.service.ListUsers(r.Context(), filter, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	items := make([]userResponse, 0, len(users))
	for i := range users {
		items = append(items, newUserResponse(&users[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(items, total, page))
}

// Get handles GET /api/v1/users/{id}. Admins may read anyone; other callers
// only themselves.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p := middleware.PrincipalFromContext(r.Context())
	if !p.HasRole(domain.RoleAdmin) && p.UserID != id {
		httputil.WriteError(w, r, apperrors.Forbidden("insufficient permissions"), h.logger)
		return
	}
	h.get(w, r, id)
}

// Update handles PUT /api/v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r, "id"); ok {
		h.update(w, r, id)
	}
}

// UpdateAddress handles PUT /api/v1/users/{id}/address
func (h *UserHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r, "id"); ok {
		h.updateAddress(w, r, id)
	}
}

// UpdateContact handles PUT /api/v1/users/{id}/contact
func (h *UserHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r, "id"); ok {
		h.updateContact(w, r, id)
	}
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r, "id"); ok {
		h.delete(w, r, id)
	}
}

// AddRole handles POST /api/v1/users/{id}/roles/{roleId}
func (h *UserHandler) AddRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	roleID, ok := pathID(w, r, "roleId")
	if !ok {
		return
	}

	user, err := h.service.AddRole(r.Context(), id, roleID)
	h.writeUser(w, r, user, err)
}

// RemoveRole handles DELETE /api/v1/users/{id}/roles/{roleId}
func (h *UserHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	roleID, ok := pathID(w, r, "roleId")
	if !ok {
		return
	}

	user, err := h.service.RemoveRole(r.Context(), id, roleID)
	h.writeUser(w, r, user, err)
}

// SetRoles handles PUT /api/v1/users/{id}/roles
func (h *UserHandler) SetRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req setRolesRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.SetRoles(r.Context(), id, req.RoleIDs)
	h.writeUser(w, r, user, err)
}

// --- shared ---

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	user, err := h.service.GetUser(r.Context(), id)
	h.writeUser(w, r, user, err)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req updateUserRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, service.UpdateUserInput{
		FullName:  req.FullName,
		BirthDate: parseDate(req.BirthDate),
		Email:     req.Email,
	})
	h.writeUser(w, r, user, err)
}

func (h *UserHandler) updateAddress(w http.ResponseWriter, r *http.Request, id string) {
	var req addressRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateAddress(r.Context(), id, *req.toInput())
	h.writeUser(w, r, user, err)
}

func (h *UserHandler) updateContact(w http.ResponseWriter, r *http.Request, id string) {
	var req contactRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateContact(r.Context(), id, *req.toInput())
	h.writeUser(w, r, user, err)
}

func (h *UserHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) writeUser(w http.ResponseWriter, r *http.Request, user *domain.User, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newUserResponse(user)})
}

// callerID is the authenticated user's ID. Routes using it sit behind Auth.
func callerID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// pathID reads a UUID path parameter, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, name))
	if !ok {
		return "", false
	}
	return id.String(), true
}
