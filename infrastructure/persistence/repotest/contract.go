// Package repotest holds behaviour tests shared by every repository driver.
package repotest

import (
	"context"
	"testing"
	"time"

	"matflow/application/ports"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewUser builds an account fixture.
func NewUser(t *testing.T, username, email string) *entities.User {
	t.Helper()
	u, err := entities.NewUser(username, email, "$2a$10$hash")
	require.NoError(t, err)
	return u
}

// NewWorkflow builds a record fixture saved at ts.
func NewWorkflow(t *testing.T, owner valueobjects.UserID, ts time.Time) *entities.Workflow {
	t.Helper()
	w, err := entities.ReconstructWorkflow(valueobjects.NewWorkflowID().String(), owner.String(), `[]`, "", ts)
	require.NoError(t, err)
	return w
}

// UserRepository runs the account contract against repositories built by
// newRepo. Each subtest gets a fresh repository.
func UserRepository(t *testing.T, newRepo func(t *testing.T) ports.UserRepository) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		repo := newRepo(t)
		u := NewUser(t, "ada", "Ada@Example.com")
		require.NoError(t, repo.Create(ctx, u))

		byEmail, err := repo.FindByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID(), byEmail.ID())
		assert.Equal(t, "$2a$10$hash", byEmail.PasswordHash())

		byName, err := repo.FindByUsername(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, u.ID(), byName.ID())

		byID, err := repo.FindByID(ctx, u.ID())
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", byID.Email())
		assert.Equal(t, u.Roles(), byID.Roles())
	})

	t.Run("not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ports.ErrUserNotFound)
		_, err = repo.FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ports.ErrUserNotFound)
		_, err = repo.FindByID(ctx, valueobjects.NewUserID())
		assert.ErrorIs(t, err, ports.ErrUserNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, valueobjects.NewUserID()), ports.ErrUserNotFound)
		assert.ErrorIs(t, repo.UpdateName(ctx, valueobjects.NewUserID(), "x"), ports.ErrUserNotFound)
	})

	t.Run("uniqueness on create", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, NewUser(t, "ada", "ada@example.com")))

		assert.ErrorIs(t, repo.Create(ctx, NewUser(t, "other", "ada@example.com")), ports.ErrEmailTaken)
		assert.ErrorIs(t, repo.Create(ctx, NewUser(t, "ada", "other@example.com")), ports.ErrUsernameTaken)
	})

	t.Run("field updates", func(t *testing.T) {
		repo := newRepo(t)
		u := NewUser(t, "ada", "ada@example.com")
		require.NoError(t, repo.Create(ctx, u))

		require.NoError(t, repo.UpdateName(ctx, u.ID(), "Ada Lovelace"))
		require.NoError(t, repo.UpdateInstitution(ctx, u.ID(), "Analytical Engines"))
		require.NoError(t, repo.UpdatePassword(ctx, u.ID(), "$2a$10$new"))
		require.NoError(t, repo.UpdateAvatarURL(ctx, u.ID(), "https://img.example/ada.png"))
		require.NoError(t, repo.UpdateUsername(ctx, u.ID(), "countess"))
		require.NoError(t, repo.UpdateEmail(ctx, u.ID(), "countess@example.com"))

		got, err := repo.FindByID(ctx, u.ID())
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", got.Name())
		assert.Equal(t, "Analytical Engines", got.Institution())
		assert.Equal(t, "$2a$10$new", got.PasswordHash())
		assert.Equal(t, "https://img.example/ada.png", got.ImageURL())
		assert.Equal(t, "countess", got.Username())
		assert.Equal(t, "countess@example.com", got.Email())

		_, err = repo.FindByUsername(ctx, "ada")
		assert.ErrorIs(t, err, ports.ErrUserNotFound)
		_, err = repo.FindByEmail(ctx, "countess@example.com")
		assert.NoError(t, err)
	})

	t.Run("uniqueness on update", func(t *testing.T) {
		repo := newRepo(t)
		a := NewUser(t, "ada", "ada@example.com")
		b := NewUser(t, "bob", "bob@example.com")
		require.NoError(t, repo.Create(ctx, a))
		require.NoError(t, repo.Create(ctx, b))

		assert.ErrorIs(t, repo.UpdateUsername(ctx, b.ID(), "ada"), ports.ErrUsernameTaken)
		assert.ErrorIs(t, repo.UpdateEmail(ctx, b.ID(), "ada@example.com"), ports.ErrEmailTaken)

		got, err := repo.FindByID(ctx, b.ID())
		require.NoError(t, err)
		assert.Equal(t, "bob", got.Username())
		assert.Equal(t, "bob@example.com", got.Email())
	})

	t.Run("delete frees email and username", func(t *testing.T) {
		repo := newRepo(t)
		u := NewUser(t, "ada", "ada@example.com")
		require.NoError(t, repo.Create(ctx, u))
		require.NoError(t, repo.Delete(ctx, u.ID()))

		_, err := repo.FindByID(ctx, u.ID())
		assert.ErrorIs(t, err, ports.ErrUserNotFound)
		assert.NoError(t, repo.Create(ctx, NewUser(t, "ada", "ada@example.com")))
	})
}

// WorkflowRepository runs the workflow record contract.
func WorkflowRepository(t *testing.T, newRepo func(t *testing.T) ports.WorkflowRepository) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("save and find", func(t *testing.T) {
		repo := newRepo(t)
		owner := valueobjects.NewUserID()
		w := NewWorkflow(t, owner, base)
		require.NoError(t, repo.Save(ctx, w))

		got, err := repo.FindByID(ctx, w.ID())
		require.NoError(t, err)
		assert.Equal(t, w.ID(), got.ID())
		assert.Equal(t, owner, got.UserID())
		assert.Equal(t, w.Blob(), got.Blob())
		assert.Equal(t, w.Checksum(), got.Checksum())
		assert.True(t, base.Equal(got.Timestamp()))

		_, err = repo.FindByID(ctx, valueobjects.NewWorkflowID())
		assert.ErrorIs(t, err, ports.ErrWorkflowNotFound)
	})

	t.Run("list newest first with paging", func(t *testing.T) {
		repo := newRepo(t)
		owner := valueobjects.NewUserID()
		var saved []*entities.Workflow
		for i := 0; i < 5; i++ {
			w := NewWorkflow(t, owner, base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, repo.Save(ctx, w))
			saved = append(saved, w)
		}
		require.NoError(t, repo.Save(ctx, NewWorkflow(t, valueobjects.NewUserID(), base)))

		page, total, err := repo.ListByUser(ctx, owner, 2, 0)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, page, 2)
		assert.Equal(t, saved[4].ID(), page[0].ID())
		assert.Equal(t, saved[3].ID(), page[1].ID())

		page, _, err = repo.ListByUser(ctx, owner, 2, 4)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, saved[0].ID(), page[0].ID())

		page, total, err = repo.ListByUser(ctx, owner, 2, 10)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Empty(t, page)
	})

	t.Run("delete is owner scoped", func(t *testing.T) {
		repo := newRepo(t)
		owner := valueobjects.NewUserID()
		w := NewWorkflow(t, owner, base)
		require.NoError(t, repo.Save(ctx, w))

		assert.ErrorIs(t, repo.Delete(ctx, valueobjects.NewUserID(), w.ID()), ports.ErrWorkflowNotFound)
		require.NoError(t, repo.Delete(ctx, owner, w.ID()))
		assert.ErrorIs(t, repo.Delete(ctx, owner, w.ID()), ports.ErrWorkflowNotFound)
	})

	t.Run("delete by user", func(t *testing.T) {
		repo := newRepo(t)
		owner, other := valueobjects.NewUserID(), valueobjects.NewUserID()
		for i := 0; i < 3; i++ {
			require.NoError(t, repo.Save(ctx, NewWorkflow(t, owner, base.Add(time.Duration(i)*time.Second))))
		}
		kept := NewWorkflow(t, other, base)
		require.NoError(t, repo.Save(ctx, kept))

		n, err := repo.DeleteByUser(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		_, total, err := repo.ListByUser(ctx, owner, 10, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
		_, err = repo.FindByID(ctx, kept.ID())
		assert.NoError(t, err)
	})
}
