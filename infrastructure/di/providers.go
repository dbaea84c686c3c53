package di

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"matflow/application/commands"
	"matflow/application/commands/bus"
	commandhandlers "matflow/application/commands/handlers"
	"matflow/application/ports"
	"matflow/application/queries"
	querybus "matflow/application/queries/bus"
	queryhandlers "matflow/application/queries/handlers"
	domainconfig "matflow/domain/config"
	"matflow/domain/core/validators"
	"matflow/domain/core/valueobjects"
	"matflow/infrastructure/config"
	"matflow/infrastructure/messaging/eventbridge"
	eventlog "matflow/infrastructure/messaging/logging"
	"matflow/infrastructure/persistence/dynamodb"
	"matflow/infrastructure/persistence/instrumented"
	"matflow/infrastructure/persistence/memory"
	"matflow/infrastructure/persistence/mongodb"
	"matflow/infrastructure/persistence/sqlite"
	"matflow/infrastructure/storage"
	"matflow/pkg/auth"
	pkgerrors "matflow/pkg/errors"
	"matflow/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "matflow"

// ProvideLogLevel creates the shared level that the config watcher adjusts
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := cfg.ZapLevel()
	if err != nil {
		return zap.AtomicLevel{}, err
	}
	return zap.NewAtomicLevelAt(level), nil
}

// ProvideLogger creates a new logger instance. Lambda and production get
// JSON output for CloudWatch.
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = level

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName), zap.String("environment", string(cfg.Environment))), nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client. DYNAMODB_ENDPOINT points it
// at DynamoDB Local.
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// Store is the repository pair for the configured database driver
type Store struct {
	Driver    string
	Users     ports.UserRepository
	Workflows ports.WorkflowRepository
	Health    ports.HealthChecker
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ProvideStore opens the database selected by DATABASE_DRIVER. The cleanup
// closes the connection.
func ProvideStore(
	ctx context.Context,
	cfg *config.Config,
	dynamoClient *awsdynamodb.Client,
	collector *observability.Collector,
	logger *zap.Logger,
) (*Store, func(), error) {
	var (
		users     ports.UserRepository
		workflows ports.WorkflowRepository
		health    ports.HealthChecker
		cleanup   = func() {}
	)

	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		users, workflows, health = db.Users(), db.Workflows(), db
		cleanup = closer(logger, "sqlite", db.Close)

	case config.DriverMongoDB:
		store, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, nil, err
		}
		users, workflows, health = store.Users(), store.Workflows(), store
		cleanup = closer(logger, "mongodb", store.Close)

	case config.DriverDynamoDB:
		table := dynamodb.NewTable(dynamoClient, cfg.DynamoDBTable, logger)
		users, workflows, health = table.Users(), table.Workflows(), table

	case config.DriverMemory:
		users, workflows = memory.NewUserRepository(), memory.NewWorkflowRepository()
		health = pingFunc(func(context.Context) error { return nil })

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}

	logger.Info("Storage ready", zap.String("driver", cfg.DatabaseDriver))
	return &Store{
		Driver:    cfg.DatabaseDriver,
		Users:     instrumented.Users(users, collector),
		Workflows: instrumented.Workflows(workflows, collector),
		Health:    health,
	}, cleanup, nil
}

func closer(logger *zap.Logger, name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			logger.Warn("Failed to close connection", zap.String("store", name), zap.Error(err))
		}
	}
}

// ProvideUserRepository exposes the store's account repository
func ProvideUserRepository(store *Store) ports.UserRepository {
	return store.Users
}

// ProvideWorkflowRepository exposes the store's workflow repository
func ProvideWorkflowRepository(store *Store) ports.WorkflowRepository {
	return store.Workflows
}

// ProvideEventPublisher publishes to EventBridge when enabled and to the log
// otherwise.
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventsEnabled {
		return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	}
	return eventlog.NewPublisher(logger)
}

// unconfiguredImageStore rejects uploads when no image host is set up
type unconfiguredImageStore struct{}

var _ ports.ImageStore = unconfiguredImageStore{}

func (unconfiguredImageStore) Upload(context.Context, valueobjects.UserID, string, io.Reader) (string, error) {
	return "", pkgerrors.NewUnavailableError("image store")
}

// ProvideImageStore creates the Cloudinary store behind a circuit breaker
func ProvideImageStore(cfg *config.Config, logger *zap.Logger) (ports.ImageStore, error) {
	if cfg.CloudinaryURL == "" {
		logger.Warn("CLOUDINARY_URL not set, avatar uploads are disabled")
		return unconfiguredImageStore{}, nil
	}
	store, err := storage.NewCloudinaryStore(cfg.CloudinaryURL, cfg.CloudinaryFolder, logger)
	if err != nil {
		return nil, err
	}
	return storage.NewBreakerImageStore(store, storage.DefaultBreakerConfig("cloudinary"), logger), nil
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector(serviceName)
}

// ProvideCommandMetrics pushes command metrics to CloudWatch when
// CLOUDWATCH_NAMESPACE is set.
func ProvideCommandMetrics(cfg *config.Config, client *awscloudwatch.Client, logger *zap.Logger) *observability.CommandMetrics {
	if cfg.CloudWatchNamespace == "" {
		return observability.NewCommandMetrics("", nil, logger)
	}
	namespace := fmt.Sprintf("%s/%s", cfg.CloudWatchNamespace, cfg.Environment)
	return observability.NewCommandMetrics(namespace, client, logger)
}

// ProvideTracer starts OpenTelemetry tracing when enabled with the otel
// provider. It returns nil otherwise.
func ProvideTracer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing || cfg.TracingProvider != config.TracingOTel {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: serviceName,
		Environment: string(cfg.Environment),
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideDomainConfig returns the domain rules
func ProvideDomainConfig() *domainconfig.DomainConfig {
	return domainconfig.DefaultDomainConfig()
}

// ProvideUserValidator creates the account field validator
func ProvideUserValidator(cfg *domainconfig.DomainConfig) *validators.UserValidator {
	return validators.NewUserValidator(cfg)
}

// ProvidePasswordHasher creates the bcrypt hasher
func ProvidePasswordHasher(cfg *config.Config) ports.PasswordHasher {
	return auth.NewBcryptHasher(cfg.BcryptCost)
}

// ProvideTokenService creates the JWT signer. Outside production a missing
// secret is replaced by a random one, so tokens die with the process.
func ProvideTokenService(cfg *config.Config, logger *zap.Logger) (*auth.TokenService, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		logger.Warn("JWT_SECRET not set, using a random secret")
	}
	return auth.NewTokenService(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		TTL:       cfg.JWTTTL,
	})
}

// ProvideLoginLimiter creates the per client login limiter
func ProvideLoginLimiter(cfg *config.Config) *auth.KeyedLimiter {
	return auth.NewKeyedLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst)
}

// ProvideCache creates the in-process query cache
func ProvideCache() (*InMemoryCache, func()) {
	cache := NewInMemoryCache()
	return cache, cache.Close
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	users ports.UserRepository,
	workflows ports.WorkflowRepository,
	cache *InMemoryCache,
	hasher ports.PasswordHasher,
	validator *validators.UserValidator,
	images ports.ImageStore,
	publisher ports.EventPublisher,
	collector *observability.Collector,
	commandMetrics *observability.CommandMetrics,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(commandMetrics),
	)

	registerHandler := commandhandlers.NewRegisterUserHandler(users, hasher, validator, publisher, collector, logger)
	updateHandler := commandhandlers.NewUpdateUserHandler(users, hasher, validator, publisher, logger)
	avatarHandler := commandhandlers.NewUpdateAvatarHandler(users, images, publisher, collector, logger)
	deleteUserHandler := commandhandlers.NewDeleteUserHandler(users, workflows, cache, publisher, collector, logger)
	workflowHandler := commandhandlers.NewWorkflowHandler(workflows, cache, publisher, collector, domainCfg, logger)

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.RegisterUserCommand{}, bus.Handler(registerHandler.Handle)},
		{commands.UpdateUserFieldCommand{}, bus.Handler(updateHandler.HandleField)},
		{commands.UpdatePasswordCommand{}, bus.Handler(updateHandler.HandlePassword)},
		{commands.UpdateAvatarCommand{}, bus.Handler(avatarHandler.Handle)},
		{commands.DeleteUserCommand{}, bus.Handler(deleteUserHandler.Handle)},
		{commands.SaveWorkflowCommand{}, bus.Handler(workflowHandler.HandleSave)},
		{commands.DeleteWorkflowCommand{}, bus.Handler(workflowHandler.HandleDelete)},
	}
	for _, r := range registrations {
		if err := commandBus.Register(r.cmd, r.handler); err != nil {
			return nil, err
		}
	}

	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers. Workflow
// list pages go through the cache.
func ProvideQueryBus(
	cfg *config.Config,
	users ports.UserRepository,
	workflows ports.WorkflowRepository,
	cache *InMemoryCache,
	hasher ports.PasswordHasher,
	tokens *auth.TokenService,
	validator *validators.UserValidator,
	collector *observability.Collector,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()

	loginHandler := queryhandlers.NewLoginHandler(users, hasher, tokens, validator, collector, logger)
	currentUserHandler := queryhandlers.NewGetCurrentUserHandler(users)
	workflowQueries := queryhandlers.NewWorkflowQueryHandler(workflows)
	caching := querybus.NewCachingMiddleware(cache, cfg.CacheTTLSeconds, collector)

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.LoginQuery{}, querybus.Handler(loginHandler.Handle)},
		{queries.GetCurrentUserQuery{}, querybus.Handler(currentUserHandler.Handle)},
		{queries.ListWorkflowsQuery{}, caching.Wrap(querybus.Handler(workflowQueries.HandleList))},
		{queries.GetWorkflowQuery{}, querybus.Handler(workflowQueries.HandleGet)},
	}
	for _, r := range registrations {
		if err := queryBus.Register(r.query, r.handler); err != nil {
			return nil, err
		}
	}

	return queryBus, nil
}
