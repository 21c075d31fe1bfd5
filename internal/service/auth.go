package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vitorbastosbn/nutricionista/internal/auth"
	"github.com/vitorbastosbn/nutricionista/internal/domain"
	"github.com/vitorbastosbn/nutricionista/internal/repository"
	apperrors "github.com/vitorbastosbn/nutricionista/pkg/errors"
	"github.com/vitorbastosbn/nutricionista/pkg/logger"
)

// EventPublisher emits user domain events. event.Producer implements it.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserUpdated(ctx context.Context, user *domain.User) error
	PublishUserDeleted(ctx context.Context, user *domain.User) error
	PublishUserRolesChanged(ctx context.Context, user *domain.User) error
}

// AuthService issues sessions: login, registration and refresh.
type AuthService struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	codec  *auth.Codec
	hasher *auth.PasswordHasher
	guard  repository.RefreshTokenGuard
	events EventPublisher
	logger *slog.Logger
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithRefreshGuard makes every refresh token single-use.
func WithRefreshGuard(guard repository.RefreshTokenGuard) AuthOption {
	return func(s *AuthService) { s.guard = guard }
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	codec *auth.Codec,
	hasher *auth.PasswordHasher,
	events EventPublisher,
	logger *slog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:  users,
		roles:  roles,
		codec:  codec,
		hasher: hasher,
		events: events,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Input types ---

// LoginInput holds login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// AddressInput holds a postal address.
type AddressInput struct {
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	ZipCode      string
	Country      string
}

// ContactInput holds phone numbers.
type ContactInput struct {
	EmergencyContact string
	EmergencyPhone   string
	PhoneNumber      string
	AlternativePhone string
	WhatsApp         bool
}

// RegisterInput holds a self-registration request.
type RegisterInput struct {
	FullName  string
	BirthDate time.Time
	Email     string
	Password  string
	Address   *AddressInput
	Contact   *ContactInput
}

// --- Operations ---

// Login verifies credentials and issues a token pair. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.hasher.VerifyDummy(input.Password)
			s.loginFailed(ctx, input.Email, "unknown email")
			return nil, invalidCredentials()
		}
		recordAuth("login", outcomeError)
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored password hash is unusable",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		s.loginFailed(ctx, input.Email, "unusable hash")
		return nil, invalidCredentials()
	}
	if !ok {
		s.loginFailed(ctx, input.Email, "wrong password")
		return nil, invalidCredentials()
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		recordAuth("login", outcomeError)
		return nil, err
	}

	recordAuth("login", outcomeSuccess)
	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return pair, nil
}

// Register creates an identity with the default role and logs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.TokenPair, error) {
	exists, err := s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		recordAuth("register", outcomeError)
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		recordAuth("register", outcomeDuplicateEmail)
		return nil, duplicateEmail()
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			recordAuth("register", outcomeInvalidInput)
			return nil, apperrors.InvalidInput("password must be at most 72 bytes")
		}
		recordAuth("register", outcomeError)
		return nil, err
	}

	role, err := s.roles.GetByName(ctx, domain.DefaultRole)
	if err != nil {
		recordAuth("register", outcomeError)
		return nil, fmt.Errorf("load role %s: %w", domain.DefaultRole, err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		FullName:     input.FullName,
		BirthDate:    input.BirthDate,
		Email:        input.Email,
		PasswordHash: hash,
		Address:      input.Address.apply(nil),
		Contact:      input.Contact.apply(nil),
		Roles:        []domain.Role{*role},
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			recordAuth("register", outcomeDuplicateEmail)
			return nil, duplicateEmail()
		}
		recordAuth("register", outcomeError)
		return nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		recordAuth("register", outcomeError)
		return nil, err
	}

	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	recordAuth("register", outcomeSuccess)
	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. Every failure is
// reported as an invalid refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.codec.DecodeAndVerify(refreshToken)
	if err != nil {
		s.refreshFailed(ctx, outcomeInvalidRefreshToken, err.Error())
		return nil, invalidRefreshToken()
	}
	if claims.Type != auth.TokenTypeRefresh {
		s.refreshFailed(ctx, outcomeInvalidRefreshToken, "token type "+claims.Type)
		return nil, invalidRefreshToken()
	}

	user, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.refreshFailed(ctx, outcomeInvalidRefreshToken, domain.ErrIdentityNotFound.Error())
			return nil, invalidRefreshToken()
		}
		recordAuth("refresh", outcomeError)
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if s.guard != nil {
		if claims.ID == "" {
			s.refreshFailed(ctx, outcomeInvalidRefreshToken, "missing jti")
			return nil, invalidRefreshToken()
		}
		remaining := claims.ExpiresAt.Sub(s.codec.Now())
		fresh, err := s.guard.Consume(ctx, claims.ID, remaining)
		if err != nil {
			recordAuth("refresh", outcomeError)
			return nil, fmt.Errorf("consume refresh token: %w", err)
		}
		if !fresh {
			s.logger.WarnContext(ctx, "refresh token reuse detected",
				slog.String("user_id", user.ID),
				slog.String("jti", claims.ID),
			)
			recordAuth("refresh", outcomeReuseDetected)
			return nil, invalidRefreshToken()
		}
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		recordAuth("refresh", outcomeError)
		return nil, err
	}

	recordAuth("refresh", outcomeSuccess)
	return pair, nil
}

// --- Helpers ---

func (s *AuthService) issueTokenPair(user *domain.User) (*domain.TokenPair, error) {
	issuedAt := s.codec.Now().UTC().Truncate(time.Second)

	access, err := s.codec.IssueAccess(user.Email, user.ID, user.RoleNames())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.IssueRefresh(user.Email, user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        domain.TokenTypeBearer,
		ExpiresIn:        int64(s.codec.AccessTTL() / time.Second),
		RefreshExpiresIn: int64(s.codec.RefreshTTL() / time.Second),
		UserID:           user.ID,
		Username:         user.Email,
		Email:            user.Email,
		IssuedAt:         issuedAt,
	}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) {
	recordAuth("login", outcomeInvalidCredentials)
	s.logger.InfoContext(ctx, "login failed",
		slog.String("email", logger.MaskEmail(email)),
		slog.String("reason", reason),
	)
}

func (s *AuthService) refreshFailed(ctx context.Context, outcome, reason string) {
	recordAuth("refresh", outcome)
	s.logger.InfoContext(ctx, "refresh rejected", slog.String("reason", reason))
}

// apply copies the input onto existing, keeping its ID, or onto a new
// address with a fresh ID. A nil input yields existing unchanged.
func (in *AddressInput) apply(existing *domain.Address) *domain.Address {
	if in == nil {
		return existing
	}
	a := &domain.Address{ID: uuid.NewString()}
	if existing != nil {
		a.ID = existing.ID
	}
	a.Street = in.Street
	a.Number = in.Number
	a.Complement = in.Complement
	a.Neighborhood = in.Neighborhood
	a.City = in.City
	a.State = in.State
	a.ZipCode = in.ZipCode
	a.Country = in.Country
	return a
}

// apply works like AddressInput.apply.
func (in *ContactInput) apply(existing *domain.Contact) *domain.Contact {
	if in == nil {
		return existing
	}
	c := &domain.Contact{ID: uuid.NewString()}
	if existing != nil {
		c.ID = existing.ID
	}
	c.EmergencyContact = in.EmergencyContact
	c.EmergencyPhone = in.EmergencyPhone
	c.PhoneNumber = in.PhoneNumber
	c.AlternativePhone = in.AlternativePhone
	c.WhatsApp = in.WhatsApp
	return c
}
