package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/vitorbastosbn/nutricionista/internal/auth"
	"github.com/vitorbastosbn/nutricionista/internal/domain"
	"github.com/vitorbastosbn/nutricionista/pkg/pagination"
)

// --- Mock UserRepository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepository) List(ctx context.Context, filter domain.UserFilter, page pagination.Params) ([]domain.User, int, error) {
	args := m.Called(ctx, filter, page)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Int(1), args.Error(2)
}

func (m *mockUserRepository) AddRole(ctx context.Context, userID, roleID string) error {
	return m.Called(ctx, userID, roleID).Error(0)
}

func (m *mockUserRepository) RemoveRole(ctx context.Context, userID, roleID string) error {
	return m.Called(ctx, userID, roleID).Error(0)
}

func (m *mockUserRepository) SetRoles(ctx context.Context, userID string, roleIDs []string) error {
	return m.Called(ctx, userID, roleIDs).Error(0)
}

// --- Mock RoleRepository ---

type mockRoleRepository struct {
	mock.Mock
}

func (m *mockRoleRepository) Create(ctx context.Context, role *domain.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *mockRoleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *mockRoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *mockRoleRepository) Update(ctx context.Context, role *domain.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *mockRoleRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRoleRepository) List(ctx context.Context, filter domain.RoleFilter, page pagination.Params) ([]domain.Role, int, error) {
	args := m.Called(ctx, filter, page)
	roles, _ := args.Get(0).([]domain.Role)
	return roles, args.Int(1), args.Error(2)
}

// --- Mock RefreshTokenGuard ---

type mockGuard struct {
	mock.Mock
}

func (m *mockGuard) Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, jti, ttl)
	return args.Bool(0), args.Error(1)
}

// --- Mock EventPublisher ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockEvents) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockEvents) PublishUserDeleted(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockEvents) PublishUserRolesChanged(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

// --- Test Helpers ---

const (
	testSecret = "test-secret-key-for-testing-0123456789"
	testIssuer = "nutricionista"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCodec(opts ...auth.CodecOption) *auth.Codec {
	return auth.NewCodec(testSecret, testIssuer, 15*time.Minute, 7*24*time.Hour, opts...)
}

func newTestHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(bcrypt.MinCost)
}

// hashForTest creates a bcrypt hash with the minimum cost for fast tests.
func hashForTest(t *testing.T, password string) string {
	t.Helper()
	hash, err := newTestHasher().Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

var (
	roleUser  = domain.Role{ID: "role-user", Name: domain.RoleUser}
	roleAdmin = domain.Role{ID: "role-admin", Name: domain.RoleAdmin}
)

func sampleUser(t *testing.T) *domain.User {
	return &domain.User{
		ID:           "user-1",
		FullName:     "Maria Silva",
		BirthDate:    time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		Email:        "maria@example.com",
		PasswordHash: hashForTest(t, "secret123"),
		Roles:        []domain.Role{roleUser},
	}
}
