package ports

import (
	"context"
	"errors"
	"io"

	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
	"matflow/domain/events"
)

// Sentinel errors returned by every repository implementation. Adapters map
// driver specific failures (unique constraint, duplicate key, conditional
// check) onto these.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already in use")
	ErrUsernameTaken    = errors.New("username already in use")
	ErrWorkflowNotFound = errors.New("workflow not found")
)

// UserRepository defines the interface for account persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type UserRepository interface {
	// FindByEmail looks up an account by its normalised email
	FindByEmail(ctx context.Context, email string) (*entities.User, error)

	// FindByUsername looks up an account by username
	FindByUsername(ctx context.Context, username string) (*entities.User, error)

	// FindByID retrieves an account by its ID
	FindByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error)

	// Create persists a new account, failing with ErrEmailTaken or
	// ErrUsernameTaken when either is already registered
	Create(ctx context.Context, user *entities.User) error

	// Delete removes an account
	Delete(ctx context.Context, id valueobjects.UserID) error

	UpdateName(ctx context.Context, id valueobjects.UserID, name string) error
	UpdateUsername(ctx context.Context, id valueobjects.UserID, username string) error
	UpdateInstitution(ctx context.Context, id valueobjects.UserID, institution string) error
	UpdateEmail(ctx context.Context, id valueobjects.UserID, email string) error
	UpdatePassword(ctx context.Context, id valueobjects.UserID, passwordHash string) error
	UpdateAvatarURL(ctx context.Context, id valueobjects.UserID, url string) error
}

// WorkflowRepository defines the interface for saved workflow records.
// Records are append-only.
type WorkflowRepository interface {
	// Save appends a new record
	Save(ctx context.Context, workflow *entities.Workflow) error

	// FindByID retrieves a record by its ID
	FindByID(ctx context.Context, id valueobjects.WorkflowID) (*entities.Workflow, error)

	// ListByUser returns one page of a user's records, newest first, and the
	// total record count
	ListByUser(ctx context.Context, userID valueobjects.UserID, limit, offset int) ([]*entities.Workflow, int, error)

	// Delete removes a record owned by userID. Records owned by anyone else
	// report ErrWorkflowNotFound.
	Delete(ctx context.Context, userID valueobjects.UserID, id valueobjects.WorkflowID) error

	// DeleteByUser removes every record owned by userID
	DeleteByUser(ctx context.Context, userID valueobjects.UserID) (int, error)
}

// ImageStore uploads avatar images to an external host and returns the
// public URL.
type ImageStore interface {
	Upload(ctx context.Context, userID valueobjects.UserID, filename string, image io.Reader) (string, error)
}

// EventPublisher publishes domain events
type EventPublisher interface {
	// Publish publishes a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch publishes multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache stores query results. TTLs are in seconds.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl int) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	GenerateToken(userID, email string, roles []string) (string, error)
}

// HealthChecker is implemented by adapters that hold a connection.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
