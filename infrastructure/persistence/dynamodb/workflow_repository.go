package dynamodb

import (
	"context"
	"fmt"
	"time"

	"matflow/application/ports"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// workflowItem represents the DynamoDB item structure for a workflow record
type workflowItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	WorkflowID string `dynamodbav:"WorkflowID"`
	UserID     string `dynamodbav:"UserID"`
	Workflow   string `dynamodbav:"Workflow"`
	Checksum   string `dynamodbav:"Checksum"`
	Timestamp  string `dynamodbav:"Timestamp"`
}

func (i workflowItem) toEntity() (*entities.Workflow, error) {
	ts, err := time.Parse(time.RFC3339Nano, i.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp on workflow %s: %w", i.WorkflowID, err)
	}
	return entities.ReconstructWorkflow(i.WorkflowID, i.UserID, i.Workflow, i.Checksum, ts)
}

// WorkflowRepository implements ports.WorkflowRepository
type WorkflowRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

var _ ports.WorkflowRepository = (*WorkflowRepository)(nil)

func (r *WorkflowRepository) Save(ctx context.Context, w *entities.Workflow) error {
	av, err := attributevalue.MarshalMap(workflowItem{
		PK:         userPK(w.UserID().String()),
		SK:         workflowSK(w.Timestamp(), w.ID().String()),
		GSI1PK:     workflowGSI(w.ID().String()),
		GSI1SK:     entityWorkflow,
		EntityType: entityWorkflow,
		WorkflowID: w.ID().String(),
		UserID:     w.UserID().String(),
		Workflow:   w.Blob(),
		Checksum:   w.Checksum(),
		Timestamp:  w.Timestamp().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	r.logger.Debug("Workflow saved",
		zap.String("workflowID", w.ID().String()),
		zap.String("userID", w.UserID().String()),
	)
	return nil
}

func (r *WorkflowRepository) FindByID(ctx context.Context, id valueobjects.WorkflowID) (*entities.Workflow, error) {
	item, err := r.findItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return item.toEntity()
}

func (r *WorkflowRepository) findItem(ctx context.Context, id valueobjects.WorkflowID) (*workflowItem, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(workflowGSI(id.String())))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(gsi1),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, ports.ErrWorkflowNotFound
	}
	var item workflowItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow: %w", err)
	}
	return &item, nil
}

// ListByUser walks the user's partition newest first. The total comes from
// the same walk, so the page and the count agree.
func (r *WorkflowRepository) ListByUser(ctx context.Context, userID valueobjects.UserID, limit, offset int) ([]*entities.Workflow, int, error) {
	items, err := r.queryUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	total := len(items)
	out := make([]*entities.Workflow, 0)
	if offset >= total {
		return out, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	for _, item := range items[offset:end] {
		w, err := item.toEntity()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, w)
	}
	return out, total, nil
}

func (r *WorkflowRepository) queryUser(ctx context.Context, userID valueobjects.UserID) ([]workflowItem, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID.String()))).
		And(expression.Key("SK").BeginsWith(workflowSKPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})

	var items []workflowItem
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list workflows: %w", err)
		}
		var batch []workflowItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal workflows: %w", err)
		}
		items = append(items, batch...)
	}
	return items, nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, userID valueobjects.UserID, id valueobjects.WorkflowID) error {
	item, err := r.findItem(ctx, id)
	if err != nil {
		return err
	}
	if item.UserID != userID.String() {
		return ports.ErrWorkflowNotFound
	}

	cond := expression.Name("UserID").Equal(expression.Value(userID.String()))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}
	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       key(item.PK, item.SK),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ports.ErrWorkflowNotFound
		}
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	return nil
}

func (r *WorkflowRepository) DeleteByUser(ctx context.Context, userID valueobjects.UserID) (int, error) {
	items, err := r.queryUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	for start := 0; start < len(items); start += maxBatchWrite {
		end := start + maxBatchWrite
		if end > len(items) {
			end = len(items)
		}
		requests := make([]types.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key(item.PK, item.SK)},
			})
		}
		if err := r.batchWrite(ctx, requests); err != nil {
			return start, err
		}
	}
	return len(items), nil
}

// batchWrite retries unprocessed items a few times before giving up.
func (r *WorkflowRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.tableName: requests}
	for attempt := 0; attempt < 5 && len(pending[r.tableName]) > 0; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt*50) * time.Millisecond):
			}
		}
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("failed to delete workflows: %w", err)
		}
		pending = out.UnprocessedItems
	}
	if n := len(pending[r.tableName]); n > 0 {
		return fmt.Errorf("failed to delete workflows: %d items left unprocessed", n)
	}
	return nil
}
