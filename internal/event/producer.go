package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vitorbastosbn/nutricionista/internal/domain"
	pkgkafka "github.com/vitorbastosbn/nutricionista/pkg/kafka"
	"github.com/vitorbastosbn/nutricionista/pkg/logger"
)

// Kafka topics for user domain events.
var (
	TopicUserRegistered   = pkgkafka.Topic("user", "registered")
	TopicUserUpdated      = pkgkafka.Topic("user", "updated")
	TopicUserDeleted      = pkgkafka.Topic("user", "deleted")
	TopicUserRolesChanged = pkgkafka.Topic("user", "roles_changed")
)

// AggregateTypeUser is the aggregate type of every user event.
const AggregateTypeUser = "user"

// SourceUserService identifies events emitted by this service.
const SourceUserService = "nutricionista-user-service"

// UserData is the payload of user.registered and user.updated.
type UserData struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// UserDeletedData is the payload of user.deleted.
type UserDeletedData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserRolesChangedData is the payload of user.roles_changed.
type UserRolesChangedData struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

// Producer publishes user domain events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer. publisher is typically a
// circuit-breaker-wrapped kafka producer, or pkgkafka.NoopPublisher when
// Kafka is disabled.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, user.ID, userData(user))
}

// PublishUserUpdated publishes a user.updated event.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserUpdated, user.ID, userData(user))
}

// PublishUserDeleted publishes a user.deleted event.
func (p *Producer) PublishUserDeleted(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserDeleted, user.ID, UserDeletedData{ID: user.ID, Email: user.Email})
}

// PublishUserRolesChanged publishes a user.roles_changed event.
func (p *Producer) PublishUserRolesChanged(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRolesChanged, user.ID, UserRolesChangedData{ID: user.ID, Roles: user.RoleNames()})
}

func (p *Producer) publish(ctx context.Context, topic, userID string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, userID, AggregateTypeUser, SourceUserService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published user event",
		slog.String("topic", topic),
		slog.String("user_id", userID),
	)
	return nil
}

func userData(u *domain.User) UserData {
	return UserData{ID: u.ID, FullName: u.FullName, Email: u.Email, Roles: u.RoleNames()}
}
