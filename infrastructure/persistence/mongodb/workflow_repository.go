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
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type workflowDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Workflow  string    `bson:"workflow"`
	Checksum  string    `bson:"checksum"`
	Timestamp time.Time `bson:"timestamp"`
}

func (d workflowDocument) toEntity() (*entities.Workflow, error) {
	return entities.ReconstructWorkflow(d.ID, d.UserID, d.Workflow, d.Checksum, d.Timestamp.UTC())
}

// WorkflowRepository implements ports.WorkflowRepository on the workflows
// collection
type WorkflowRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

var _ ports.WorkflowRepository = (*WorkflowRepository)(nil)

func (r *WorkflowRepository) Save(ctx context.Context, w *entities.Workflow) error {
	_, err := r.coll.InsertOne(ctx, workflowDocument{
		ID:        w.ID().String(),
		UserID:    w.UserID().String(),
		Workflow:  w.Blob(),
		Checksum:  w.Checksum(),
		Timestamp: w.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to insert workflow: %w", err)
	}
	return nil
}

func (r *WorkflowRepository) FindByID(ctx context.Context, id valueobjects.WorkflowID) (*entities.Workflow, error) {
	var doc workflowDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to find workflow: %w", err)
	}
	return doc.toEntity()
}

func (r *WorkflowRepository) ListByUser(ctx context.Context, userID valueobjects.UserID, limit, offset int) ([]*entities.Workflow, int, error) {
	filter := bson.M{"user_id": userID.String()}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count workflows: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer cur.Close(ctx)

	var docs []workflowDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode workflows: %w", err)
	}
	out := make([]*entities.Workflow, 0, len(docs))
	for _, d := range docs {
		w, err := d.toEntity()
		if err != nil {
			r.logger.Warn("Skipping malformed workflow record", zap.String("workflowID", d.ID), zap.Error(err))
			continue
		}
		out = append(out, w)
	}
	return out, int(total), nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, userID valueobjects.UserID, id valueobjects.WorkflowID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String(), "user_id": userID.String()})
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	if res.DeletedCount == 0 {
		return ports.ErrWorkflowNotFound
	}
	return nil
}

func (r *WorkflowRepository) DeleteByUser(ctx context.Context, userID valueobjects.UserID) (int, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID.String()})
	if err != nil {
		return 0, fmt.Errorf("failed to delete workflows: %w", err)
	}
	return int(res.DeletedCount), nil
}
