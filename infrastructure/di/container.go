package di

import (
	"context"
	"sync"

	"matflow/application/commands/bus"
	"matflow/application/ports"
	querybus "matflow/application/queries/bus"
	domainconfig "matflow/domain/config"
	"matflow/infrastructure/config"
	"matflow/pkg/auth"
	"matflow/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	LogLevel       zap.AtomicLevel
	Logger         *zap.Logger
	DomainConfig   *domainconfig.DomainConfig
	Store          *Store
	Cache          *InMemoryCache
	EventPublisher ports.EventPublisher
	ImageStore     ports.ImageStore
	Collector      *observability.Collector
	Tracer         *observability.TracerProvider
	Tokens         *auth.TokenService
	LoginLimiter   *auth.KeyedLimiter
	CommandBus     *bus.CommandBus
	QueryBus       *querybus.QueryBus

	cleanup   func()
	closeOnce sync.Once
}

// New builds the container for cfg. Close releases everything it opened.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, cleanup, err := InitializeContainer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.cleanup = cleanup
	return c, nil
}

// Close releases connections, flushes traces and syncs the logger.
// It is safe to call more than once.
func (c *Container) Close() {
	c.closeOnce.Do(func() {
		if c.cleanup != nil {
			c.cleanup()
		}
		_ = c.Logger.Sync()
	})
}

// Ready reports whether the backing store answers.
func (c *Container) Ready(ctx context.Context) error {
	return c.Store.Health.Ping(ctx)
}
