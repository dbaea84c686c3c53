// Package instrumented decorates repositories with operation counters and
// X-Ray subsegments.
package instrumented

import (
	"context"

	"matflow/application/ports"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
	"matflow/pkg/observability"
)

// Recorder counts repository calls by operation and outcome.
type Recorder interface {
	RecordDBOperation(operation string, err error)
}

var _ Recorder = (*observability.Collector)(nil)

func run(ctx context.Context, rec Recorder, op string, fn func(context.Context) error) error {
	err := observability.TraceSubsegment(ctx, op, fn)
	if rec != nil {
		rec.RecordDBOperation(op, err)
	}
	return err
}

// UserRepository wraps a ports.UserRepository
type UserRepository struct {
	next ports.UserRepository
	rec  Recorder
}

var _ ports.UserRepository = (*UserRepository)(nil)

// Users wraps next. A nil recorder only adds tracing.
func Users(next ports.UserRepository, rec Recorder) *UserRepository {
	return &UserRepository{next: next, rec: rec}
}

func (r *UserRepository) find(ctx context.Context, op string, fn func(context.Context) (*entities.User, error)) (*entities.User, error) {
	var user *entities.User
	err := run(ctx, r.rec, op, func(ctx context.Context) error {
		var err error
		user, err = fn(ctx)
		return err
	})
	return user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.find(ctx, "users.find_by_email", func(ctx context.Context) (*entities.User, error) {
		return r.next.FindByEmail(ctx, email)
	})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.find(ctx, "users.find_by_username", func(ctx context.Context) (*entities.User, error) {
		return r.next.FindByUsername(ctx, username)
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	return r.find(ctx, "users.find_by_id", func(ctx context.Context) (*entities.User, error) {
		return r.next.FindByID(ctx, id)
	})
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	return run(ctx, r.rec, "users.create", func(ctx context.Context) error {
		return r.next.Create(ctx, user)
	})
}

func (r *UserRepository) Delete(ctx context.Context, id valueobjects.UserID) error {
	return run(ctx, r.rec, "users.delete", func(ctx context.Context) error {
		return r.next.Delete(ctx, id)
	})
}

func (r *UserRepository) UpdateName(ctx context.Context, id valueobjects.UserID, name string) error {
	return run(ctx, r.rec, "users.update_name", func(ctx context.Context) error {
		return r.next.UpdateName(ctx, id, name)
	})
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id valueobjects.UserID, username string) error {
	return run(ctx, r.rec, "users.update_username", func(ctx context.Context) error {
		return r.next.UpdateUsername(ctx, id, username)
	})
}

func (r *UserRepository) UpdateInstitution(ctx context.Context, id valueobjects.UserID, institution string) error {
	return run(ctx, r.rec, "users.update_institution", func(ctx context.Context) error {
		return r.next.UpdateInstitution(ctx, id, institution)
	})
}

func (r *UserRepository) UpdateEmail(ctx context.Context, id valueobjects.UserID, email string) error {
	return run(ctx, r.rec, "users.update_email", func(ctx context.Context) error {
		return r.next.UpdateEmail(ctx, id, email)
	})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id valueobjects.UserID, passwordHash string) error {
	return run(ctx, r.rec, "users.update_password", func(ctx context.Context) error {
		return r.next.UpdatePassword(ctx, id, passwordHash)
	})
}

func (r *UserRepository) UpdateAvatarURL(ctx context.Context, id valueobjects.UserID, url string) error {
	return run(ctx, r.rec, "users.update_avatar", func(ctx context.Context) error {
		return r.next.UpdateAvatarURL(ctx, id, url)
	})
}

// WorkflowRepository wraps a ports.WorkflowRepository
type WorkflowRepository struct {
	next ports.WorkflowRepository
	rec  Recorder
}

var _ ports.WorkflowRepository = (*WorkflowRepository)(nil)

// Workflows wraps next. A nil recorder only adds tracing.
func Workflows(next ports.WorkflowRepository, rec Recorder) *WorkflowRepository {
	return &WorkflowRepository{next: next, rec: rec}
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *entities.Workflow) error {
	return run(ctx, r.rec, "workflows.save", func(ctx context.Context) error {
		return r.next.Save(ctx, workflow)
	})
}

func (r *WorkflowRepository) FindByID(ctx context.Context, id valueobjects.WorkflowID) (*entities.Workflow, error) {
	var wf *entities.Workflow
	err := run(ctx, r.rec, "workflows.find_by_id", func(ctx context.Context) error {
		var err error
		wf, err = r.next.FindByID(ctx, id)
		return err
	})
	return wf, err
}

func (r *WorkflowRepository) ListByUser(ctx context.Context, userID valueobjects.UserID, limit, offset int) ([]*entities.Workflow, int, error) {
	var (
		page  []*entities.Workflow
		total int
	)
	err := run(ctx, r.rec, "workflows.list_by_user", func(ctx context.Context) error {
		var err error
		page, total, err = r.next.ListByUser(ctx, userID, limit, offset)
		return err
	})
	return page, total, err
}

func (r *WorkflowRepository) Delete(ctx context.Context, userID valueobjects.UserID, id valueobjects.WorkflowID) error {
	return run(ctx, r.rec, "workflows.delete", func(ctx context.Context) error {
		return r.next.Delete(ctx, userID, id)
	})
}

func (r *WorkflowRepository) DeleteByUser(ctx context.Context, userID valueobjects.UserID) (int, error) {
	var n int
	err := run(ctx, r.rec, "workflows.delete_by_user", func(ctx context.Context) error {
		var err error
		n, err = r.next.DeleteByUser(ctx, userID)
		return err
	})
	return n, err
}
