package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// PutMetricDataAPI is the part of the CloudWatch client used here.
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CommandMetrics pushes command execution metrics to CloudWatch. A nil
// client turns every call into a no-op.
type CommandMetrics struct {
	namespace string
	client    PutMetricDataAPI
	logger    *zap.Logger
}

// NewCommandMetrics creates a CloudWatch metrics sink
func NewCommandMetrics(namespace string, client PutMetricDataAPI, logger *zap.Logger) *CommandMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandMetrics{namespace: namespace, client: client, logger: logger}
}

// RecordCommandExecution records latency and count for one command.
// Failures to publish are logged and otherwise ignored.
func (m *CommandMetrics) RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error) {
	if m == nil || m.client == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	now := time.Now()
	dims := []types.Dimension{
		{Name: aws.String("CommandName"), Value: aws.String(commandName)},
		{Name: aws.String("Status"), Value: aws.String(status)},
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String("CommandExecution"),
				Dimensions: dims,
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       types.StandardUnitMilliseconds,
				Timestamp:  aws.Time(now),
			},
			{
				MetricName: aws.String("CommandCount"),
				Dimensions: dims,
				Value:      aws.Float64(1),
				Unit:       types.StandardUnitCount,
				Timestamp:  aws.Time(now),
			},
		},
	}

	if _, perr := m.client.PutMetricData(ctx, input); perr != nil {
		m.logger.Warn("Failed to send command metrics",
			zap.String("command", commandName),
			zap.Error(perr),
		)
	}
}
