package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"matflow/application/ports"
	"matflow/application/ports/mocks"
	"matflow/application/queries"
	"matflow/domain/config"
	"matflow/domain/core/entities"
	"matflow/domain/core/validators"
	"matflow/domain/core/valueobjects"
	"matflow/pkg/auth"
	pkgerrors "matflow/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testUser(t *testing.T) *entities.User {
	t.Helper()
	u, err := entities.ReconstructUser(entities.UserSnapshot{
		ID:           valueobjects.NewUserID().String(),
		Username:     "ada",
		Email:        "ada@example.org",
		PasswordHash: "stored-hash",
		Roles:        []string{"user"},
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	return u
}

func TestLoginHandler_Handle(t *testing.T) {
	ctx := context.Background()
	validator := validators.NewUserValidator(config.DefaultDomainConfig())

	t.Run("success", func(t *testing.T) {
		user := testUser(t)
		users := new(mocks.MockUserRepository)
		hasher := new(mocks.MockPasswordHasher)
		tokens := new(mocks.MockTokenIssuer)
		users.On("FindByEmail", ctx, "ada@example.org").Return(user, nil)
		hasher.On("Compare", "stored-hash", "correct-horse").Return(nil)
		tokens.On("GenerateToken", user.ID().String(), "ada@example.org", []string{"user"}).Return("signed", nil)

		handler := NewLoginHandler(users, hasher, tokens, validator, nil, nil)
		result, err := handler.Handle(ctx, queries.LoginQuery{Email: "ADA@example.org", Password: "correct-horse"})

		require.NoError(t, err)
		assert.Equal(t, "signed", result.Token)
		assert.Equal(t, "ada", result.User.Username)
	})

	t.Run("unknown email", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		users.On("FindByEmail", ctx, "nobody@example.org").Return(nil, ports.ErrUserNotFound)

		handler := NewLoginHandler(users, nil, nil, validator, nil, nil)
		_, err := handler.Handle(ctx, queries.LoginQuery{Email: "nobody@example.org", Password: "whatever1"})

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, pkgerrors.StatusCode(err))
		assert.Equal(t, "User not found!", pkgerrors.GetAppError(err).Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		user := testUser(t)
		users := new(mocks.MockUserRepository)
		hasher := new(mocks.MockPasswordHasher)
		users.On("FindByEmail", ctx, "ada@example.org").Return(user, nil)
		hasher.On("Compare", "stored-hash", "wrong-horse").Return(auth.ErrPasswordMismatch)

		handler := NewLoginHandler(users, hasher, nil, validator, nil, nil)
		_, err := handler.Handle(ctx, queries.LoginQuery{Email: "ada@example.org", Password: "wrong-horse"})

		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, pkgerrors.StatusCode(err))
		assert.Equal(t, "Invalid credentials!", pkgerrors.GetAppError(err).Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		handler := NewLoginHandler(users, nil, nil, validator, nil, nil)

		_, err := handler.Handle(ctx, queries.LoginQuery{Password: "x"})

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, pkgerrors.StatusCode(err))
		users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})
}

func TestGetCurrentUserHandler_Handle(t *testing.T) {
	ctx := context.Background()
	user := testUser(t)
	users := new(mocks.MockUserRepository)
	users.On("FindByID", ctx, user.ID()).Return(user, nil)

	view, err := NewGetCurrentUserHandler(users).Handle(ctx, queries.GetCurrentUserQuery{UserID: user.ID().String()})

	require.NoError(t, err)
	assert.Equal(t, user.ID().String(), view.ID)
	assert.Equal(t, "ada@example.org", view.Email)
}

func TestWorkflowQueryHandler_HandleList(t *testing.T) {
	ctx := context.Background()
	userID := valueobjects.NewUserID()
	first, err := entities.NewWorkflow(valueobjects.WorkflowID{}, userID, "[]", 0)
	require.NoError(t, err)

	workflows := new(mocks.MockWorkflowRepository)
	workflows.On("ListByUser", ctx, userID, 10, 10).Return([]*entities.Workflow{first}, 11, nil)

	result, err := NewWorkflowQueryHandler(workflows).HandleList(ctx, queries.ListWorkflowsQuery{
		UserID: userID.String(), Page: 2, PageSize: 10,
	})

	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)
	assert.Equal(t, first.ID().String(), result.Workflows[0].ID)
	assert.Equal(t, 11, result.Pagination.Total)
	assert.Equal(t, 2, result.Pagination.TotalPages)
	assert.False(t, result.Pagination.HasNext)
	assert.True(t, result.Pagination.HasPrev)
}

func TestWorkflowQueryHandler_HandleGet(t *testing.T) {
	ctx := context.Background()
	owner := valueobjects.NewUserID()
	wf, err := entities.NewWorkflow(valueobjects.WorkflowID{}, owner, "[]", 0)
	require.NoError(t, err)

	workflows := new(mocks.MockWorkflowRepository)
	workflows.On("FindByID", ctx, wf.ID()).Return(wf, nil)
	handler := NewWorkflowQueryHandler(workflows)

	t.Run("owner", func(t *testing.T) {
		view, err := handler.HandleGet(ctx, queries.GetWorkflowQuery{UserID: owner.String(), WorkflowID: wf.ID().String()})
		require.NoError(t, err)
		assert.Equal(t, "[]", view.Workflow)
		assert.Equal(t, wf.Checksum(), view.Checksum)
	})

	t.Run("someone else", func(t *testing.T) {
		_, err := handler.HandleGet(ctx, queries.GetWorkflowQuery{UserID: valueobjects.NewUserID().String(), WorkflowID: wf.ID().String()})
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, pkgerrors.StatusCode(err))
	})
}
