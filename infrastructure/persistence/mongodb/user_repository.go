package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matflow/application/ports"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// userDocument is the stored shape of an account
type userDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Roles        []string  `bson:"roles"`
	Institution  string    `bson:"institution"`
	ImageURL     string    `bson:"image_url"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toUserDocument(u *entities.User) userDocument {
	s := u.Snapshot()
	return userDocument{
		ID:           s.ID,
		Name:         s.Name,
		Username:     s.Username,
		Email:        s.Email,
		PasswordHash: s.PasswordHash,
		Roles:        s.Roles,
		Institution:  s.Institution,
		ImageURL:     s.ImageURL,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (d userDocument) toEntity() (*entities.User, error) {
	return entities.ReconstructUser(entities.UserSnapshot{
		ID:           d.ID,
		Name:         d.Name,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Roles:        d.Roles,
		Institution:  d.Institution,
		ImageURL:     d.ImageURL,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	})
}

// UserRepository implements ports.UserRepository on the users collection
type UserRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, bson.M{"email": entities.NormalizeEmail(email)})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*entities.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toEntity()
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	_, err := r.coll.InsertOne(ctx, toUserDocument(user))
	if err = mapDuplicateKey(err); err != nil {
		if errors.Is(err, ports.ErrEmailTaken) || errors.Is(err, ports.ErrUsernameTaken) {
			return err
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	r.logger.Debug("User created", zap.String("userID", user.ID().String()))
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id valueobjects.UserID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ports.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateName(ctx context.Context, id valueobjects.UserID, name string) error {
	return r.set(ctx, id, "name", name)
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id valueobjects.UserID, username string) error {
	return r.set(ctx, id, "username", username)
}

func (r *UserRepository) UpdateInstitution(ctx context.Context, id valueobjects.UserID, institution string) error {
	return r.set(ctx, id, "institution", institution)
}

func (r *UserRepository) UpdateEmail(ctx context.Context, id valueobjects.UserID, email string) error {
	return r.set(ctx, id, "email", entities.NormalizeEmail(email))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id valueobjects.UserID, passwordHash string) error {
	return r.set(ctx, id, "password_hash", passwordHash)
}

func (r *UserRepository) UpdateAvatarURL(ctx context.Context, id valueobjects.UserID, url string) error {
	return r.set(ctx, id, "image_url", url)
}

func (r *UserRepository) set(ctx context.Context, id valueobjects.UserID, field, value string) error {
	res, err := r.coll.UpdateByID(ctx, id.String(), bson.M{
		"$set": bson.M{field: value, "updated_at": time.Now().UTC()},
	})
	if err = mapDuplicateKey(err); err != nil {
		if errors.Is(err, ports.ErrEmailTaken) || errors.Is(err, ports.ErrUsernameTaken) {
			return err
		}
		return fmt.Errorf("failed to update user %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return ports.ErrUserNotFound
	}
	return nil
}
