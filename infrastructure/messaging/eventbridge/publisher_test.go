package eventbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"matflow/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	calls   []*eventbridge.PutEventsInput
	respond func(call int, in *eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error)
}

func (f *fakeClient) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in)
	if f.respond != nil {
		return f.respond(len(f.calls), in)
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func newTestPublisher(c *fakeClient) *Publisher {
	p := NewPublisher(c, "matflow-bus", zap.NewNop())
	p.backoff = time.Millisecond
	return p
}

func someEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewUserDeleted("user-1", time.Unix(int64(i), 0).UTC())
	}
	return out
}

func TestPublishBatch_Chunks(t *testing.T) {
	c := &fakeClient{}
	require.NoError(t, newTestPublisher(c).PublishBatch(context.Background(), someEvents(23)))

	require.Len(t, c.calls, 3)
	assert.Len(t, c.calls[0].Entries, 10)
	assert.Len(t, c.calls[2].Entries, 3)

	entry := c.calls[0].Entries[0]
	assert.Equal(t, "matflow-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.SourceBackend, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeUserDeleted, aws.ToString(entry.DetailType))
	assert.JSONEq(t, `{"aggregate_id":"user-1","event_type":"user.deleted","timestamp":"1970-01-01T00:00:00Z","version":1,"user_id":"user-1"}`,
		aws.ToString(entry.Detail))
}

func TestPublish_RetriesFailedEntries(t *testing.T) {
	c := &fakeClient{respond: func(call int, in *eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error) {
		if call == 1 {
			return &eventbridge.PutEventsOutput{
				FailedEntryCount: 1,
				Entries: []types.PutEventsResultEntry{
					{EventId: aws.String("1")},
					{ErrorCode: aws.String("ThrottlingException"), ErrorMessage: aws.String("slow down")},
				},
			}, nil
		}
		return &eventbridge.PutEventsOutput{}, nil
	}}

	require.NoError(t, newTestPublisher(c).PublishBatch(context.Background(), someEvents(2)))
	require.Len(t, c.calls, 2)
	assert.Len(t, c.calls[1].Entries, 1)
}

func TestPublish_GivesUp(t *testing.T) {
	c := &fakeClient{respond: func(int, *eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error) {
		return nil, errors.New("unreachable")
	}}

	err := newTestPublisher(c).Publish(context.Background(), someEvents(1)[0])
	assert.ErrorContains(t, err, "unreachable")
	assert.Len(t, c.calls, 3)
}

func TestPublishBatch_Empty(t *testing.T) {
	c := &fakeClient{}
	require.NoError(t, newTestPublisher(c).PublishBatch(context.Background(), nil))
	assert.Empty(t, c.calls)
}
