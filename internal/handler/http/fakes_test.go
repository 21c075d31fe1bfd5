package http

import (
	"context"
	"strings"
	"sync"

	"github.com/vitorbastosbn/nutricionista/internal/domain"
	apperrors "github.com/vitorbastosbn/nutricionista/pkg/errors"
	"github.com/vitorbastosbn/nutricionista/pkg/pagination"
)

// memRoleRepo is an in-memory repository.RoleRepository.
type memRoleRepo struct {
	mu    sync.Mutex
	roles map[string]domain.Role
}

func newMemRoleRepo(seed ...domain.Role) *memRoleRepo {
	r := &memRoleRepo{roles: make(map[string]domain.Role)}
	for _, role := range seed {
		r.roles[role.ID] = role
	}
	return r
}

func (r *memRoleRepo) Create(_ context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.roles {
		if strings.EqualFold(existing.Name, role.Name) {
			return apperrors.AlreadyExists("role", "name", role.Name)
		}
	}
	r.roles[role.ID] = *role
	return nil
}

func (r *memRoleRepo) GetByID(_ context.Context, id string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &role, nil
}

func (r *memRoleRepo) GetByName(_ context.Context, name string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.roles {
		if strings.EqualFold(role.Name, name) {
			return &role, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memRoleRepo) Update(_ context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[role.ID]; !ok {
		return apperrors.NotFound("role", role.ID)
	}
	r.roles[role.ID] = *role
	return nil
}

func (r *memRoleRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return apperrors.NotFound("role", id)
	}
	delete(r.roles, id)
	return nil
}

func (r *memRoleRepo) List(_ context.Context, f domain.RoleFilter, _ pagination.Params) ([]domain.Role, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Role
	for _, role := range r.roles {
		if f.Search == "" || strings.Contains(strings.ToLower(role.Name), strings.ToLower(f.Search)) {
			out = append(out, role)
		}
	}
	return out, len(out), nil
}

// memUserRepo is an in-memory repository.UserRepository.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	roles *memRoleRepo
}

func newMemUserRepo(roles *memRoleRepo) *memUserRepo {
	return &memUserRepo{users: make(map[string]domain.User), roles: roles}
}

func clone(u domain.User) *domain.User {
	if u.Address != nil {
		a := *u.Address
		u.Address = &a
	}
	if u.Contact != nil {
		c := *u.Contact
		u.Contact = &c
	}
	u.Roles = append([]domain.Role{}, u.Roles...)
	return &u
}

func (r *memUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
	}
	r.users[u.ID] = *clone(*u)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return clone(u), nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *memUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return apperrors.NotFound("user", u.ID)
	}
	updated := clone(*u)
	updated.Roles = stored.Roles
	r.users[u.ID] = *updated
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperrors.NotFound("user", id)
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) List(_ context.Context, f domain.UserFilter, _ pagination.Params) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	needle := strings.ToLower(f.Search)
	for _, u := range r.users {
		if needle == "" || strings.Contains(strings.ToLower(u.FullName), needle) ||
			strings.Contains(strings.ToLower(u.Email), needle) {
			out = append(out, *clone(u))
		}
	}
	return out, len(out), nil
}

func (r *memUserRepo) AddRole(ctx context.Context, userID, roleID string) error {
	role, err := r.roles.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[userID]
	u.Roles = append(u.Roles, *role)
	r.users[userID] = u
	return nil
}

func (r *memUserRepo) RemoveRole(_ context.Context, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[userID]
	var kept []domain.Role
	for _, role := range u.Roles {
		if role.ID != roleID {
			kept = append(kept, role)
		}
	}
	u.Roles = kept
	r.users[userID] = u
	return nil
}

func (r *memUserRepo) SetRoles(ctx context.Context, userID string, roleIDs []string) error {
	var roles []domain.Role
	for _, id := range roleIDs {
		role, err := r.roles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		roles = append(roles, *role)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[userID]
	u.Roles = roles
	r.users[userID] = u
	return nil
}
