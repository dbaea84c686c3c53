package handlers

import (
	"context"

	"matflow/application/ports"
	"matflow/application/queries"
	"matflow/domain/events"

	"go.uber.org/zap"
)

// publish sends events after the state change has been stored. Failures are
// logged and never reach the caller.
func publish(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, evts ...events.DomainEvent) {
	if publisher == nil || len(evts) == 0 {
		return
	}
	if err := publisher.PublishBatch(ctx, evts); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("count", len(evts)),
			zap.String("first_type", evts[0].GetEventType()),
			zap.Error(err),
		)
	}
}

// invalidateWorkflowLists drops every cached list page for a user.
func invalidateWorkflowLists(ctx context.Context, cache ports.Cache, logger *zap.Logger, userID string) {
	if cache == nil {
		return
	}
	if err := cache.DeletePrefix(ctx, queries.WorkflowListCachePrefix(userID)); err != nil {
		logger.Warn("Failed to invalidate workflow list cache",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
