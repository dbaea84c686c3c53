package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"matflow/application/ports"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"

	"go.uber.org/zap"
)

// WorkflowRepository implements ports.WorkflowRepository on the workflows table
type WorkflowRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.WorkflowRepository = (*WorkflowRepository)(nil)

func (r *WorkflowRepository) Save(ctx context.Context, workflow *entities.Workflow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workflows (id, user_id, workflow, checksum, created_at) VALUES (?, ?, ?, ?, ?)`,
		workflow.ID().String(), workflow.UserID().String(), workflow.Blob(),
		workflow.Checksum(), workflow.Timestamp().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert workflow: %w", err)
	}
	r.logger.Debug("Workflow saved",
		zap.String("workflowID", workflow.ID().String()),
		zap.String("userID", workflow.UserID().String()),
	)
	return nil
}

func (r *WorkflowRepository) FindByID(ctx context.Context, id valueobjects.WorkflowID) (*entities.Workflow, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, workflow, checksum, created_at FROM workflows WHERE id = ?`, id.String())
	w, err := scanWorkflow(row)
	if err != nil {
		if err = notFound(err, ports.ErrWorkflowNotFound); err == ports.ErrWorkflowNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to query workflow: %w", err)
	}
	return w, nil
}

func (r *WorkflowRepository) ListByUser(ctx context.Context, userID valueobjects.UserID, limit, offset int) ([]*entities.Workflow, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workflows WHERE user_id = ?`, userID.String()).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count workflows: %w", err)
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, workflow, checksum, created_at FROM workflows
		 WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		userID.String(), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	out := make([]*entities.Workflow, 0)
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan workflow: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list workflows: %w", err)
	}
	return out, total, nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, userID valueobjects.UserID, id valueobjects.WorkflowID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM workflows WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	return requireRow(res, ports.ErrWorkflowNotFound)
}

func (r *WorkflowRepository) DeleteByUser(ctx context.Context, userID valueobjects.UserID) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE user_id = ?`, userID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to delete workflows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(s scanner) (*entities.Workflow, error) {
	var (
		id, userID, blob, checksum string
		createdAt                  int64
	)
	if err := s.Scan(&id, &userID, &blob, &checksum, &createdAt); err != nil {
		return nil, err
	}
	return entities.ReconstructWorkflow(id, userID, blob, checksum, time.Unix(0, createdAt).UTC())
}
