package repository

import (
	"context"
	"time"

	"github.com/vitorbastosbn/nutricionista/internal/domain"
	"github.com/vitorbastosbn/nutricionista/pkg/pagination"
)

// UserRepository is the identity store. Lookups return apperrors.ErrNotFound
// for missing rows; writes return apperrors.ErrAlreadyExists when the email
// is taken.
type UserRepository interface {
	// Create persists a new identity together with its address, contact and
	// roles in one transaction. ID and timestamps are assigned.
	Create(ctx context.Context, user *domain.User) error

	// GetByID loads an identity with address, contact and roles.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail loads an identity by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ExistsByEmail reports whether an identity uses email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Update saves profile fields and creates or updates the address and
	// contact. Roles are not touched.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes the identity with its address, contact and role grants.
	Delete(ctx context.Context, id string) error

	// List returns one page of identities and the total match count.
	List(ctx context.Context, filter domain.UserFilter, page pagination.Params) ([]domain.User, int, error)

	// AddRole grants roleID to userID. Granting twice is a no-op.
	AddRole(ctx context.Context, userID, roleID string) error

	// RemoveRole revokes roleID from userID.
	RemoveRole(ctx context.Context, userID, roleID string) error

	// SetRoles replaces every grant of userID with roleIDs.
	SetRoles(ctx context.Context, userID string, roleIDs []string) error
}

// RoleRepository stores roles. Names are unique ignoring case.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.RoleFilter, page pagination.Params) ([]domain.Role, int, error)
}

// RefreshTokenGuard records consumed refresh tokens so each can be used once.
type RefreshTokenGuard interface {
	// Consume marks jti as used until ttl elapses. It returns false when jti
	// was already consumed.
	Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}
