// Package dynamodb stores accounts and workflow records in a single DynamoDB
// table.
//
// Key layout:
//
//	USER#<id>        PROFILE                        account
//	EMAIL#<email>    UNIQUE                         email guard
//	USERNAME#<name>  UNIQUE                         username guard
//	USER#<id>        WORKFLOW#<timestamp>#<wfid>    workflow record
//
// Workflow records are also indexed on GSI1 by GSI1PK=WORKFLOW#<wfid>.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	entityUser     = "USER"
	entityGuard    = "GUARD"
	entityWorkflow = "WORKFLOW"

	profileSK = "PROFILE"
	guardSK   = "UNIQUE"
	gsi1      = "GSI1"

	workflowSKPrefix = "WORKFLOW#"

	// BatchWriteItem accepts at most 25 requests.
	maxBatchWrite = 25
)

// API is the subset of the DynamoDB client the repositories call.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Table binds the repositories to one table.
type Table struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewTable creates a Table
func NewTable(client API, tableName string, logger *zap.Logger) *Table {
	return &Table{client: client, tableName: tableName, logger: logger}
}

// Ping implements ports.HealthChecker
func (t *Table) Ping(ctx context.Context) error {
	_, err := t.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.tableName)})
	if err != nil {
		return fmt.Errorf("failed to describe table %s: %w", t.tableName, err)
	}
	return nil
}

// Users returns the account repository
func (t *Table) Users() *UserRepository {
	return &UserRepository{client: t.client, tableName: t.tableName, logger: t.logger}
}

// Workflows returns the workflow repository
func (t *Table) Workflows() *WorkflowRepository {
	return &WorkflowRepository{client: t.client, tableName: t.tableName, logger: t.logger}
}

func userPK(id string) string       { return "USER#" + id }
func emailPK(email string) string   { return "EMAIL#" + email }
func usernamePK(name string) string { return "USERNAME#" + name }
func workflowGSI(id string) string  { return workflowSKPrefix + id }

// workflowSK sorts lexically in save order.
func workflowSK(ts time.Time, id string) string {
	return workflowSKPrefix + ts.UTC().Format("20060102T150405.000000000Z") + "#" + id
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// cancelledConditions reports, per transaction item, whether its condition
// check failed. ok is false when err is not a cancelled transaction.
func cancelledConditions(err error) (failed []bool, ok bool) {
	var cancelled *types.TransactionCanceledException
	if !errors.As(err, &cancelled) {
		return nil, false
	}
	failed = make([]bool, len(cancelled.CancellationReasons))
	for i, reason := range cancelled.CancellationReasons {
		failed[i] = aws.ToString(reason.Code) == "ConditionalCheckFailed"
	}
	return failed, true
}

func isConditionFailed(err error) bool {
	var conditionalCheckFailed *types.ConditionalCheckFailedException
	return errors.As(err, &conditionalCheckFailed)
}
