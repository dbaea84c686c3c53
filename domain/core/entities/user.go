package entities

import (
	"strings"
	"time"

	"matflow/domain/core/valueobjects"
	"matflow/domain/events"
	pkgerrors "matflow/pkg/errors"
)

// User is an account. The password hash is held here but never rendered by
// PublicView.
type User struct {
	id           valueobjects.UserID
	name         string
	username     string
	email        string
	passwordHash string
	roles        []string
	institution  string
	imageURL     string
	createdAt    time.Time
	updatedAt    time.Time

	events []events.DomainEvent
}

// NewUser creates a fresh account and records a registration event.
func NewUser(username, email, passwordHash string) (*User, error) {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)
	if username == "" {
		return nil, pkgerrors.NewValidationError("username is required")
	}
	if email == "" {
		return nil, pkgerrors.NewValidationError("email is required")
	}
	if passwordHash == "" {
		return nil, pkgerrors.NewValidationError("password hash is required")
	}

	now := time.Now().UTC()
	u := &User{
		id:           valueobjects.NewUserID(),
		username:     username,
		email:        email,
		passwordHash: passwordHash,
		roles:        []string{"user"},
		createdAt:    now,
		updatedAt:    now,
	}
	u.addEvent(events.NewUserRegistered(u.id.String(), u.username, u.email, now))
	return u, nil
}

// UserSnapshot carries persisted user fields into ReconstructUser.
type UserSnapshot struct {
	ID           string
	Name         string
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
	Institution  string
	ImageURL     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReconstructUser rebuilds a user from storage without raising events.
func ReconstructUser(s UserSnapshot) (*User, error) {
	id, err := valueobjects.NewUserIDFromString(s.ID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	return &User{
		id:           id,
		name:         s.Name,
		username:     s.Username,
		email:        s.Email,
		passwordHash: s.PasswordHash,
		roles:        append([]string(nil), s.Roles...),
		institution:  s.Institution,
		imageURL:     s.ImageURL,
		createdAt:    s.CreatedAt,
		updatedAt:    s.UpdatedAt,
	}, nil
}

// Snapshot exports every field, hash included, for repositories.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:           u.id.String(),
		Name:         u.name,
		Username:     u.username,
		Email:        u.email,
		PasswordHash: u.passwordHash,
		Roles:        append([]string(nil), u.roles...),
		Institution:  u.institution,
		ImageURL:     u.imageURL,
		CreatedAt:    u.createdAt,
		UpdatedAt:    u.updatedAt,
	}
}

func (u *User) ID() valueobjects.UserID { return u.id }
func (u *User) Name() string            { return u.name }
func (u *User) Username() string        { return u.username }
func (u *User) Email() string           { return u.email }
func (u *User) PasswordHash() string    { return u.passwordHash }
func (u *User) Roles() []string         { return append([]string(nil), u.roles...) }
func (u *User) Institution() string     { return u.institution }
func (u *User) ImageURL() string        { return u.imageURL }
func (u *User) CreatedAt() time.Time    { return u.createdAt }

// PublicUser is the client-facing view of an account.
type PublicUser struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Roles       []string  `json:"roles,omitempty"`
	Institution string    `json:"institution,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PublicView drops the password hash.
func (u *User) PublicView() PublicUser {
	return PublicUser{
		ID:          u.id.String(),
		Name:        u.name,
		Username:    u.username,
		Email:       u.email,
		Roles:       u.Roles(),
		Institution: u.institution,
		ImageURL:    u.imageURL,
		CreatedAt:   u.createdAt,
	}
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetUncommittedEvents returns events raised since the user was loaded
func (u *User) GetUncommittedEvents() []events.DomainEvent {
	return u.events
}

// MarkEventsAsCommitted clears the pending event list
func (u *User) MarkEventsAsCommitted() {
	u.events = nil
}

func (u *User) addEvent(e events.DomainEvent) {
	u.events = append(u.events, e)
}
