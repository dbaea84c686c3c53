package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"matflow/application/ports"
	"matflow/infrastructure/persistence/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserRepository(t *testing.T) {
	repotest.UserRepository(t, func(t *testing.T) ports.UserRepository { return openTestDB(t).Users() })
}

func TestWorkflowRepository(t *testing.T) {
	repotest.WorkflowRepository(t, func(t *testing.T) ports.WorkflowRepository { return openTestDB(t).Workflows() })
}

func TestOpen_ReappliesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matflow.db")
	ctx := context.Background()

	db, err := Open(ctx, path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	applied, err := migrate(ctx, db.sql, migrations)
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.NoError(t, db.Ping(ctx))
}

func TestMigrate_RejectsGaps(t *testing.T) {
	db := openTestDB(t)
	_, err := migrate(context.Background(), db.sql, []Migration{
		{Version: 1, Description: "one"},
		{Version: 3, Description: "three"},
	})
	assert.Error(t, err)
}

func TestMapConstraint(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"email", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), ports.ErrEmailTaken},
		{"username", errors.New("UNIQUE constraint failed: users.username"), ports.ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapConstraint(tt.in))
		})
	}

	other := errors.New("disk I/O error")
	assert.Same(t, other, mapConstraint(other))
}
