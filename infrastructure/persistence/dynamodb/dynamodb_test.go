package dynamodb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"matflow/application/ports"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAPI lets each test script the calls it cares about.
type fakeAPI struct {
	API

	items     map[string]map[string]types.AttributeValue
	queries   [][]map[string]types.AttributeValue
	transact  func(*dynamodb.TransactWriteItemsInput) error
	update    func(*dynamodb.UpdateItemInput) error
	batches   []*dynamodb.BatchWriteItemInput
	deleted   []map[string]types.AttributeValue
	described int
}

func itemKey(k map[string]types.AttributeValue) string {
	pk := k["PK"].(*types.AttributeValueMemberS).Value
	sk := k["SK"].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeAPI) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if len(f.queries) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := f.queries[0]
	f.queries = f.queries[1:]
	return &dynamodb.QueryOutput{Items: page}, nil
}

func (f *fakeAPI) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	if f.transact != nil {
		return &dynamodb.TransactWriteItemsOutput{}, f.transact(in)
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeAPI) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.update != nil {
		return &dynamodb.UpdateItemOutput{}, f.update(in)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deleted = append(f.deleted, in.Key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeAPI) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.batches = append(f.batches, in)
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (f *fakeAPI) DescribeTable(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.described++
	return &dynamodb.DescribeTableOutput{}, nil
}

func cancelled(codes ...string) error {
	reasons := make([]types.CancellationReason, len(codes))
	for i, c := range codes {
		reasons[i] = types.CancellationReason{Code: aws.String(c)}
	}
	return &types.TransactionCanceledException{Message: aws.String("cancelled"), CancellationReasons: reasons}
}

func newTable(f *fakeAPI) *Table {
	if f.items == nil {
		f.items = make(map[string]map[string]types.AttributeValue)
	}
	return NewTable(f, "matflow", zap.NewNop())
}

func TestUserRepository_CreateMapsGuards(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"ok", nil, nil},
		{"email guard", cancelled("None", "ConditionalCheckFailed", "None"), ports.ErrEmailTaken},
		{"username guard", cancelled("None", "None", "ConditionalCheckFailed"), ports.ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *dynamodb.TransactWriteItemsInput
			f := &fakeAPI{transact: func(in *dynamodb.TransactWriteItemsInput) error {
				got = in
				return tt.err
			}}
			u, err := entities.NewUser("ada", "ada@example.com", "hash")
			require.NoError(t, err)

			err = newTable(f).Users().Create(context.Background(), u)
			if tt.want == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			require.Len(t, got.TransactItems, 3)
			assert.Equal(t, emailPK("ada@example.com")+"|"+guardSK, itemKey(got.TransactItems[1].Put.Item))
			assert.Equal(t, usernamePK("ada")+"|"+guardSK, itemKey(got.TransactItems[2].Put.Item))
		})
	}

	t.Run("other failure is wrapped", func(t *testing.T) {
		f := &fakeAPI{transact: func(*dynamodb.TransactWriteItemsInput) error { return fmt.Errorf("throttled") }}
		u, _ := entities.NewUser("ada", "ada@example.com", "hash")
		err := newTable(f).Users().Create(context.Background(), u)
		assert.ErrorContains(t, err, "throttled")
		assert.NotErrorIs(t, err, ports.ErrEmailTaken)
	})
}

func TestUserRepository_FindByEmail(t *testing.T) {
	f := &fakeAPI{}
	table := newTable(f)
	u, err := entities.NewUser("ada", "ada@example.com", "hash")
	require.NoError(t, err)
	s := u.Snapshot()

	profile, err := attributevalue.MarshalMap(userItem{
		PK: userPK(s.ID), SK: profileSK, EntityType: entityUser, UserID: s.ID,
		Username: s.Username, Email: s.Email, PasswordHash: s.PasswordHash, Roles: s.Roles,
		CreatedAt: s.CreatedAt.Format(time.RFC3339Nano), UpdatedAt: s.UpdatedAt.Format(time.RFC3339Nano),
	})
	require.NoError(t, err)
	guard, err := table.Users().guard(emailPK(s.Email), s.ID)
	require.NoError(t, err)
	f.items[userPK(s.ID)+"|"+profileSK] = profile
	f.items[emailPK(s.Email)+"|"+guardSK] = guard

	got, err := table.Users().FindByEmail(context.Background(), "  ADA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID(), got.ID())
	assert.Equal(t, []string{"user"}, got.Roles())
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt()))

	_, err = table.Users().FindByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ports.ErrUserNotFound)
}

func TestUserRepository_UpdateMissing(t *testing.T) {
	f := &fakeAPI{update: func(*dynamodb.UpdateItemInput) error {
		return &types.ConditionalCheckFailedException{Message: aws.String("no item")}
	}}
	err := newTable(f).Users().UpdateName(context.Background(), valueobjects.NewUserID(), "Ada")
	assert.ErrorIs(t, err, ports.ErrUserNotFound)
}

func TestUserRepository_UpdateUsernameTaken(t *testing.T) {
	f := &fakeAPI{}
	table := newTable(f)
	id := valueobjects.NewUserID()
	profile, err := attributevalue.MarshalMap(userItem{
		PK: userPK(id.String()), SK: profileSK, UserID: id.String(), Username: "ada", Email: "ada@example.com",
	})
	require.NoError(t, err)
	f.items[userPK(id.String())+"|"+profileSK] = profile
	f.transact = func(in *dynamodb.TransactWriteItemsInput) error {
		assert.Equal(t, usernamePK("bob")+"|"+guardSK, itemKey(in.TransactItems[0].Put.Item))
		assert.Equal(t, usernamePK("ada")+"|"+guardSK, itemKey(in.TransactItems[1].Delete.Key))
		return cancelled("ConditionalCheckFailed", "None", "None")
	}

	err = table.Users().UpdateUsername(context.Background(), id, "bob")
	assert.ErrorIs(t, err, ports.ErrUsernameTaken)
}

func TestWorkflowSK_SortsBySaveTime(t *testing.T) {
	early := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	late := early.Add(time.Millisecond)
	assert.Less(t, workflowSK(early, "zzz"), workflowSK(late, "aaa"))
}

func workflowFixture(t *testing.T, owner valueobjects.UserID, i int) map[string]types.AttributeValue {
	t.Helper()
	id := valueobjects.NewWorkflowID().String()
	ts := time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC)
	av, err := attributevalue.MarshalMap(workflowItem{
		PK: userPK(owner.String()), SK: workflowSK(ts, id), GSI1PK: workflowGSI(id), GSI1SK: entityWorkflow,
		EntityType: entityWorkflow, WorkflowID: id, UserID: owner.String(), Workflow: "[]",
		Timestamp: ts.Format(time.RFC3339Nano),
	})
	require.NoError(t, err)
	return av
}

func TestWorkflowRepository_ListPages(t *testing.T) {
	owner := valueobjects.NewUserID()
	var page []map[string]types.AttributeValue
	for i := 0; i < 5; i++ {
		page = append(page, workflowFixture(t, owner, i))
	}
	f := &fakeAPI{queries: [][]map[string]types.AttributeValue{page}}

	got, total, err := newTable(f).Workflows().ListByUser(context.Background(), owner, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, got, 2)
}

func TestWorkflowRepository_DeleteByUserBatches(t *testing.T) {
	owner := valueobjects.NewUserID()
	var page []map[string]types.AttributeValue
	for i := 0; i < 30; i++ {
		page = append(page, workflowFixture(t, owner, i))
	}
	f := &fakeAPI{queries: [][]map[string]types.AttributeValue{page}}

	n, err := newTable(f).Workflows().DeleteByUser(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 30, n)
	require.Len(t, f.batches, 2)
	assert.Len(t, f.batches[0].RequestItems["matflow"], 25)
	assert.Len(t, f.batches[1].RequestItems["matflow"], 5)
}

func TestWorkflowRepository_DeleteOwnerScoped(t *testing.T) {
	owner := valueobjects.NewUserID()
	item := workflowFixture(t, owner, 0)
	var wf workflowItem
	require.NoError(t, attributevalue.UnmarshalMap(item, &wf))
	id, err := valueobjects.NewWorkflowIDFromString(wf.WorkflowID)
	require.NoError(t, err)

	f := &fakeAPI{queries: [][]map[string]types.AttributeValue{{item}, {item}}}
	repo := newTable(f).Workflows()

	assert.ErrorIs(t, repo.Delete(context.Background(), valueobjects.NewUserID(), id), ports.ErrWorkflowNotFound)
	assert.Empty(t, f.deleted)

	require.NoError(t, repo.Delete(context.Background(), owner, id))
	require.Len(t, f.deleted, 1)
	assert.Equal(t, wf.PK+"|"+wf.SK, itemKey(f.deleted[0]))

	assert.ErrorIs(t, repo.Delete(context.Background(), owner, id), ports.ErrWorkflowNotFound)
}

func TestTable_Ping(t *testing.T) {
	f := &fakeAPI{}
	require.NoError(t, newTable(f).Ping(context.Background()))
	assert.Equal(t, 1, f.described)
}
