// Package memory holds mutex guarded repositories for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"matflow/application/ports"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
)

// UserRepository keeps accounts in maps keyed by id, email and username.
type UserRepository struct {
	mu         sync.RWMutex
	users      map[string]entities.UserSnapshot
	byEmail    map[string]string
	byUsername map[string]string
}

// NewUserRepository creates an empty repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:      make(map[string]entities.UserSnapshot),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[entities.NormalizeEmail(email)]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	return entities.ReconstructUser(r.users[id])
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[username]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	return entities.ReconstructUser(r.users[id])
}

func (r *UserRepository) FindByID(_ context.Context, id valueobjects.UserID) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.users[id.String()]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	return entities.ReconstructUser(s)
}

func (r *UserRepository) Create(_ context.Context, user *entities.User) error {
	s := user.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[s.Email]; taken {
		return ports.ErrEmailTaken
	}
	if _, taken := r.byUsername[s.Username]; taken {
		return ports.ErrUsernameTaken
	}
	r.users[s.ID] = s
	r.byEmail[s.Email] = s.ID
	r.byUsername[s.Username] = s.ID
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id valueobjects.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.users[id.String()]
	if !ok {
		return ports.ErrUserNotFound
	}
	delete(r.users, s.ID)
	delete(r.byEmail, s.Email)
	delete(r.byUsername, s.Username)
	return nil
}

func (r *UserRepository) UpdateName(ctx context.Context, id valueobjects.UserID, name string) error {
	return r.update(id, func(s *entities.UserSnapshot) error {
		s.Name = name
		return nil
	})
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id valueobjects.UserID, username string) error {
	return r.update(id, func(s *entities.UserSnapshot) error {
		if owner, taken := r.byUsername[username]; taken && owner != s.ID {
			return ports.ErrUsernameTaken
		}
		delete(r.byUsername, s.Username)
		r.byUsername[username] = s.ID
		s.Username = username
		return nil
	})
}

func (r *UserRepository) UpdateInstitution(ctx context.Context, id valueobjects.UserID, institution string) error {
	return r.update(id, func(s *entities.UserSnapshot) error {
		s.Institution = institution
		return nil
	})
}

func (r *UserRepository) UpdateEmail(ctx context.Context, id valueobjects.UserID, email string) error {
	email = entities.NormalizeEmail(email)
	return r.update(id, func(s *entities.UserSnapshot) error {
		if owner, taken := r.byEmail[email]; taken && owner != s.ID {
			return ports.ErrEmailTaken
		}
		delete(r.byEmail, s.Email)
		r.byEmail[email] = s.ID
		s.Email = email
		return nil
	})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id valueobjects.UserID, passwordHash string) error {
	return r.update(id, func(s *entities.UserSnapshot) error {
		s.PasswordHash = passwordHash
		return nil
	})
}

func (r *UserRepository) UpdateAvatarURL(ctx context.Context, id valueobjects.UserID, url string) error {
	return r.update(id, func(s *entities.UserSnapshot) error {
		s.ImageURL = url
		return nil
	})
}

// update applies fn to a copy of the stored snapshot under the write lock and
// stores it when fn succeeds.
func (r *UserRepository) update(id valueobjects.UserID, fn func(*entities.UserSnapshot) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.users[id.String()]
	if !ok {
		return ports.ErrUserNotFound
	}
	if err := fn(&s); err != nil {
		return err
	}
	s.UpdatedAt = now()
	r.users[s.ID] = s
	return nil
}
