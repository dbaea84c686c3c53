//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"matflow/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideCollector,
	ProvideCommandMetrics,
	ProvideTracer,
	ProvideStore,
	ProvideUserRepository,
	ProvideWorkflowRepository,
	ProvideEventPublisher,
	ProvideImageStore,
	ProvideDomainConfig,
	ProvideUserValidator,
	ProvidePasswordHasher,
	ProvideTokenService,
	ProvideLoginLimiter,
	ProvideCache,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "Config", "LogLevel", "Logger", "DomainConfig", "Store", "Cache",
		"EventPublisher", "ImageStore", "Collector", "Tracer", "Tokens", "LoginLimiter",
		"CommandBus", "QueryBus"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
