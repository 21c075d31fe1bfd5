package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vitorbastosbn/nutricionista/internal/domain"
	"github.com/vitorbastosbn/nutricionista/internal/repository"
	apperrors "github.com/vitorbastosbn/nutricionista/pkg/errors"
	"github.com/vitorbastosbn/nutricionista/pkg/pagination"
)

// UserService manages identities after registration. Callers pass the target
// user ID explicitly; authorization happens in the HTTP layer.
type UserService struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	events EventPublisher
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	events EventPublisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:  users,
		roles:  roles,
		events: events,
		logger: logger,
	}
}

// UpdateUserInput holds the editable profile fields.
type UpdateUserInput struct {
	FullName  string
	BirthDate time.Time
	Email     string
}

// GetUser returns a user with address, contact and roles.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns one page of users.
func (s *UserService) ListUsers(ctx context.Context, filter domain.UserFilter, page pagination.Params) ([]domain.User, int, error) {
	users, total, err := s.users.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// UpdateUser changes name, birth date and email.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != user.Email {
		taken, err := s.users.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			return nil, duplicateEmail()
		}
	}

	user.FullName = input.FullName
	user.BirthDate = input.BirthDate
	user.Email = input.Email

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, "user.updated", user, s.events.PublishUserUpdated)
	return user, nil
}

// UpdateAddress creates the user's address or replaces its fields.
func (s *UserService) UpdateAddress(ctx context.Context, id string, input AddressInput) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Address = input.apply(user.Address)
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, "user.updated", user, s.events.PublishUserUpdated)
	return user, nil
}

// UpdateContact creates the user's contact or replaces its fields.
func (s *UserService) UpdateContact(ctx context.Context, id string, input ContactInput) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Contact = input.apply(user.Contact)
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, "user.updated", user, s.events.PublishUserUpdated)
	return user, nil
}

// DeleteUser removes the user with its address, contact and role grants.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("user", id)
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", id))
	s.publish(ctx, "user.deleted", user, s.events.PublishUserDeleted)
	return nil
}

// AddRole grants one role.
func (s *UserService) AddRole(ctx context.Context, userID, roleID string) (*domain.User, error) {
	user, role, err := s.userAndRole(ctx, userID, roleID)
	if err != nil {
		return nil, err
	}
	if user.HasRole(role.ID) {
		return nil, roleAlreadyAssigned(role.Name)
	}

	if err := s.users.AddRole(ctx, user.ID, role.ID); err != nil {
		return nil, fmt.Errorf("add role: %w", err)
	}
	user.Roles = append(user.Roles, *role)

	s.publish(ctx, "user.roles_changed", user, s.events.PublishUserRolesChanged)
	return user, nil
}

// RemoveRole revokes one role. A user always keeps at least one.
func (s *UserService) RemoveRole(ctx context.Context, userID, roleID string) (*domain.User, error) {
	user, role, err := s.userAndRole(ctx, userID, roleID)
	if err != nil {
		return nil, err
	}
	if !user.HasRole(role.ID) {
		return nil, roleNotAssigned(role.Name)
	}
	if len(user.Roles) <= 1 {
		return nil, lastRole()
	}

	if err := s.users.RemoveRole(ctx, user.ID, role.ID); err != nil {
		return nil, fmt.Errorf("remove role: %w", err)
	}
	kept := user.Roles[:0]
	for _, r := range user.Roles {
		if r.ID != role.ID {
			kept = append(kept, r)
		}
	}
	user.Roles = kept

	s.publish(ctx, "user.roles_changed", user, s.events.PublishUserRolesChanged)
	return user, nil
}

// SetRoles replaces every role of the user. roleIDs must be non-empty and
// every ID must exist.
func (s *UserService) SetRoles(ctx context.Context, userID string, roleIDs []string) (*domain.User, error) {
	if len(roleIDs) == 0 {
		return nil, apperrors.InvalidInput("role_ids must contain at least one role")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(roleIDs))
	roles := make([]domain.Role, 0, len(roleIDs))
	ids := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		role, err := s.getRole(ctx, id)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
		ids = append(ids, role.ID)
	}

	if err := s.users.SetRoles(ctx, user.ID, ids); err != nil {
		return nil, fmt.Errorf("set roles: %w", err)
	}
	user.Roles = roles

	s.publish(ctx, "user.roles_changed", user, s.events.PublishUserRolesChanged)
	return user, nil
}

func (s *UserService) save(ctx context.Context, user *domain.User) error {
	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyExists):
			return duplicateEmail()
		case errors.Is(err, apperrors.ErrNotFound):
			return apperrors.NotFound("user", user.ID)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *UserService) userAndRole(ctx context.Context, userID, roleID string) (*domain.User, *domain.Role, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	role, err := s.getRole(ctx, roleID)
	if err != nil {
		return nil, nil, err
	}
	return user, role, nil
}

func (s *UserService) getRole(ctx context.Context, id string) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("role", id)
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

// publish emits an event. Failures are logged; the change is already stored.
func (s *UserService) publish(ctx context.Context, name string, user *domain.User, fn func(context.Context, *domain.User) error) {
	if err := fn(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "failed to publish "+name+" event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}
