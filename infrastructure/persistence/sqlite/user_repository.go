package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"matflow/application/ports"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"

	"go.uber.org/zap"
)

const userColumns = `id, name, username, email, password_hash, roles, institution, image_url, created_at, updated_at`

// UserRepository implements ports.UserRepository on the users table
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, `email = ?`, entities.NormalizeEmail(email))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findOne(ctx, `username = ?`, username)
}

func (r *UserRepository) FindByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	return r.findOne(ctx, `id = ?`, id.String())
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*entities.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)

	var (
		s                    entities.UserSnapshot
		roles                string
		createdAt, updatedAt int64
	)
	err := row.Scan(&s.ID, &s.Name, &s.Username, &s.Email, &s.PasswordHash, &roles,
		&s.Institution, &s.ImageURL, &createdAt, &updatedAt)
	if err != nil {
		if err = notFound(err, ports.ErrUserNotFound); err == ports.ErrUserNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if roles != "" {
		s.Roles = strings.Split(roles, ",")
	}
	s.CreatedAt = time.Unix(0, createdAt).UTC()
	s.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return entities.ReconstructUser(s)
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	s := user.Snapshot()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Username, s.Email, s.PasswordHash, strings.Join(s.Roles, ","),
		s.Institution, s.ImageURL, s.CreatedAt.UnixNano(), s.UpdatedAt.UnixNano(),
	)
	if err = mapConstraint(err); err != nil {
		if err == ports.ErrEmailTaken || err == ports.ErrUsernameTaken {
			return err
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	r.logger.Debug("User created", zap.String("userID", s.ID))
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id valueobjects.UserID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRow(res, ports.ErrUserNotFound)
}

func (r *UserRepository) UpdateName(ctx context.Context, id valueobjects.UserID, name string) error {
	return r.updateColumn(ctx, id, "name", name)
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id valueobjects.UserID, username string) error {
	return r.updateColumn(ctx, id, "username", username)
}

func (r *UserRepository) UpdateInstitution(ctx context.Context, id valueobjects.UserID, institution string) error {
	return r.updateColumn(ctx, id, "institution", institution)
}

func (r *UserRepository) UpdateEmail(ctx context.Context, id valueobjects.UserID, email string) error {
	return r.updateColumn(ctx, id, "email", entities.NormalizeEmail(email))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id valueobjects.UserID, passwordHash string) error {
	return r.updateColumn(ctx, id, "password_hash", passwordHash)
}

func (r *UserRepository) UpdateAvatarURL(ctx context.Context, id valueobjects.UserID, url string) error {
	return r.updateColumn(ctx, id, "image_url", url)
}

// updateColumn sets a single column. column is always a constant from this
// file.
func (r *UserRepository) updateColumn(ctx context.Context, id valueobjects.UserID, column, value string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		value, time.Now().UTC().UnixNano(), id.String(),
	)
	if err = mapConstraint(err); err != nil {
		if err == ports.ErrEmailTaken || err == ports.ErrUsernameTaken {
			return err
		}
		return fmt.Errorf("failed to update user %s: %w", column, err)
	}
	return requireRow(res, ports.ErrUserNotFound)
}

func requireRow(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return sentinel
	}
	return nil
}
