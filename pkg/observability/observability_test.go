package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector(t *testing.T) {
	c := NewCollector("matflow_test")
	c.RecordLogin("success")
	c.RecordLogin("invalid_credentials")
	c.RecordLogin("success")
	c.RecordDBOperation("create_user", nil)
	c.RecordDBOperation("create_user", errors.New("x"))

	assert.Equal(t, float64(2), testutil.ToFloat64(c.Logins.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.DBOperations.WithLabelValues("create_user", "error")))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "matflow_test_logins_total"))

	// Separate collectors do not collide.
	assert.NotPanics(t, func() { NewCollector("matflow_test") })
}

type mockCloudWatch struct {
	mock.Mock
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	args := m.Called(ctx, in)
	return &cloudwatch.PutMetricDataOutput{}, args.Error(0)
}

func TestCommandMetrics(t *testing.T) {
	client := &mockCloudWatch{}
	client.On("PutMetricData", mock.Anything, mock.MatchedBy(func(in *cloudwatch.PutMetricDataInput) bool {
		return aws.ToString(in.Namespace) == "Matflow" &&
			len(in.MetricData) == 2 &&
			aws.ToString(in.MetricData[0].Dimensions[1].Value) == "failure"
	})).Return(errors.New("throttled")).Once()

	m := NewCommandMetrics("Matflow", client, zap.NewNop())
	m.RecordCommandExecution(context.Background(), "SaveWorkflow", 15*time.Millisecond, errors.New("boom"))
	client.AssertExpectations(t)

	var nilMetrics *CommandMetrics
	require.NotPanics(t, func() {
		nilMetrics.RecordCommandExecution(context.Background(), "x", 0, nil)
		NewCommandMetrics("Matflow", nil, nil).RecordCommandExecution(context.Background(), "x", 0, nil)
	})
}

func TestTraceSubsegmentWithoutSegment(t *testing.T) {
	called := false
	err := TraceSubsegment(context.Background(), "op", func(context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}
