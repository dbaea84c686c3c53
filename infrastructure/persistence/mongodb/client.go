// Package mongodb stores accounts and workflow records in MongoDB.
// Uniqueness of email and username is enforced by unique indexes created at
// startup.
package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"matflow/application/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	usersCollection     = "users"
	workflowsCollection = "workflows"

	emailIndex    = "users_email"
	usernameIndex = "users_username"
)

// Store owns the client connection.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// Connect dials uri, verifies the connection and ensures indexes exist.
func Connect(ctx context.Context, uri, database string, logger *zap.Logger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	s := &Store{client: client, db: client.Database(database), logger: logger}

	if err := s.Ping(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to reach mongodb: %w", err)
	}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("MongoDB connection ready", zap.String("database", database))
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(emailIndex)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName(usernameIndex)},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	_, err = s.db.Collection(workflowsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("workflows_user_timestamp"),
	})
	if err != nil {
		return fmt.Errorf("failed to create workflow indexes: %w", err)
	}
	return nil
}

// Ping implements ports.HealthChecker
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Users returns the account repository
func (s *Store) Users() *UserRepository {
	return &UserRepository{coll: s.db.Collection(usersCollection), logger: s.logger}
}

// Workflows returns the workflow repository
func (s *Store) Workflows() *WorkflowRepository {
	return &WorkflowRepository{coll: s.db.Collection(workflowsCollection), logger: s.logger}
}

// mapDuplicateKey turns a duplicate key error on one of the unique indexes
// into the matching sentinel.
func mapDuplicateKey(err error) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, emailIndex):
		return ports.ErrEmailTaken
	case strings.Contains(msg, usernameIndex):
		return ports.ErrUsernameTaken
	}
	return err
}
