package di

import (
	"context"
	"fmt"

	"friendship-backend/application/commands"
	"friendship-backend/application/commands/bus"
	commandhandlers "friendship-backend/application/commands/handlers"
	"friendship-backend/application/ports"
	"friendship-backend/application/queries"
	querybus "friendship-backend/application/queries/bus"
	queryhandlers "friendship-backend/application/queries/handlers"
	"friendship-backend/domain/services"
	"friendship-backend/infrastructure/config"
	"friendship-backend/infrastructure/messaging/eventbridge"
	"friendship-backend/infrastructure/messaging/logging"
	"friendship-backend/infrastructure/persistence/dynamodb"
	"friendship-backend/infrastructure/persistence/memory"
	"friendship-backend/infrastructure/persistence/neo4j"
	"friendship-backend/infrastructure/persistence/resilience"
	"friendship-backend/infrastructure/persistence/sqlite"
	"friendship-backend/pkg/errors"
	"friendship-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ServiceName names the service in logs, traces and metric namespaces
const ServiceName = "friendship-backend"

// Logging bundles the root logger with the level that controls it
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// ProvideLogging builds the logger for the configured environment
func ProvideLogging(cfg *config.Config) (*Logging, error) {
	logger, level, err := observability.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &Logging{
		Logger: logger.With(zap.String("service", ServiceName)),
		Level:  level,
	}, nil
}

// ProvideLogger exposes the root logger
func ProvideLogger(l *Logging) *zap.Logger {
	return l.Logger
}

// ProvideErrorHandler creates the HTTP error renderer
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideAWSConfig creates AWS configuration. Loading it makes no network calls,
// so it is built even when no AWS component is enabled.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideStore opens the configured store driver. The cleanup closes it.
func ProvideStore(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (ports.Store, func(), error) {
	store, err := openStore(ctx, cfg, awsCfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.EnableCircuitBreaker {
		store = resilience.NewStore(store, resilience.DefaultBreakerConfig(cfg.StoreDriver), logger)
	}

	logger.Info("Store ready",
		zap.String("driver", cfg.StoreDriver),
		zap.Bool("circuit_breaker", cfg.EnableCircuitBreaker),
	)

	cleanup := func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("Failed to close store", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

func openStore(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (ports.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.NewStore(), nil

	case config.DriverSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close(ctx)
			return nil, err
		}
		return store, nil

	case config.DriverDynamoDB:
		client := dynamodb.NewClient(awsCfg, cfg.DynamoDBEndpoint)
		return dynamodb.NewStore(client, cfg.DynamoDBTable, logger), nil

	case config.DriverNeo4j:
		client, err := neo4j.NewClient(ctx, neo4j.Options{
			URI:      cfg.Neo4jURI,
			Database: cfg.Neo4jDatabase,
			Username: cfg.Neo4jUsername,
			Password: cfg.Neo4jPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
		}
		store := neo4j.NewStore(client, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close(ctx)
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// ProvideResolver creates the friend degree resolver over the store
func ProvideResolver(store ports.Store) ports.FriendResolver {
	return services.NewFriendDegreeResolver(store)
}

// ProvideEventPublisher publishes to EventBridge when events are enabled and
// to the structured log otherwise.
func ProvideEventPublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return logging.NewPublisher(logger)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideCollector creates the Prometheus collector, or nil when Prometheus
// is not the active metrics backend.
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics || cfg.MetricsBackend != config.MetricsPrometheus {
		return nil
	}
	return observability.NewCollector("friendship")
}

// ProvideMetrics selects the recorder for the configured backend
func ProvideMetrics(cfg *config.Config, collector *observability.Collector, awsCfg aws.Config, logger *zap.Logger) ports.MetricsRecorder {
	switch {
	case !cfg.EnableMetrics:
		return observability.NoopRecorder{}
	case collector != nil:
		return collector
	case cfg.MetricsBackend == config.MetricsCloudWatch:
		namespace := fmt.Sprintf("Friendship/%s", cfg.Environment)
		return observability.NewCloudWatchRecorder(namespace, awscloudwatch.NewFromConfig(awsCfg), logger)
	default:
		return observability.NoopRecorder{}
	}
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(ServiceName, cfg.EnableTracing)
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) error
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	store ports.Store,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(&zapLoggerAdapter{logger.Named("commands")}),
		bus.MetricsMiddleware(metrics),
	)

	createUserHandler := commandhandlers.NewCreateUserHandler(store, publisher, logger)
	updateUserHandler := commandhandlers.NewUpdateUserHandler(store, publisher, logger)
	deleteUserHandler := commandhandlers.NewDeleteUserHandler(store, publisher, logger)
	addFriendshipHandler := commandhandlers.NewAddFriendshipHandler(store, store, publisher, logger)
	removeFriendshipHandler := commandhandlers.NewRemoveFriendshipHandler(store, publisher, logger)

	registrations := []struct {
		cmd     bus.Command
		handler func(context.Context, bus.Command) error
	}{
		{commands.CreateUserCommand{}, func(ctx context.Context, cmd bus.Command) error {
			c, ok := cmd.(commands.CreateUserCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return createUserHandler.Handle(ctx, c)
		}},
		{commands.UpdateUserCommand{}, func(ctx context.Context, cmd bus.Command) error {
			c, ok := cmd.(commands.UpdateUserCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return updateUserHandler.Handle(ctx, c)
		}},
		{commands.DeleteUserCommand{}, func(ctx context.Context, cmd bus.Command) error {
			c, ok := cmd.(commands.DeleteUserCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return deleteUserHandler.Handle(ctx, c)
		}},
		{commands.AddFriendshipCommand{}, func(ctx context.Context, cmd bus.Command) error {
			c, ok := cmd.(commands.AddFriendshipCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return addFriendshipHandler.Handle(ctx, c)
		}},
		{commands.RemoveFriendshipCommand{}, func(ctx context.Context, cmd bus.Command) error {
			c, ok := cmd.(commands.RemoveFriendshipCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return removeFriendshipHandler.Handle(ctx, c)
		}},
	}

	for _, r := range registrations {
		if err := commandBus.Register(r.cmd, &CommandHandlerAdapter{handler: r.handler}); err != nil {
			return nil, err
		}
	}
	return commandBus, nil
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	store ports.Store,
	resolver ports.FriendResolver,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.MetricsMiddleware(metrics))

	getUserHandler := queryhandlers.NewGetUserHandler(store)
	if err := queryBus.Register(queries.GetUserQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetUserQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getUserHandler.Handle(ctx, q)
		},
	}); err != nil {
		return nil, err
	}

	listUsersHandler := queryhandlers.NewListUsersHandler(store)
	if err := queryBus.Register(queries.ListUsersQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.ListUsersQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listUsersHandler.Handle(ctx, q)
		},
	}); err != nil {
		return nil, err
	}

	friendsHandler := queryhandlers.NewGetFriendsByDegreeHandler(store, resolver, metrics, logger.Named("resolver"))
	if err := queryBus.Register(queries.GetFriendsByDegreeQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetFriendsByDegreeQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return friendsHandler.Handle(ctx, q)
		},
	}); err != nil {
		return nil, err
	}

	return queryBus, nil
}

// zapLoggerAdapter adapts zap.Logger to the bus.Logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, fields ...interface{}) {
	a.logger.Info(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) Error(msg string, fields ...interface{}) {
	a.logger.Error(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) fieldsToZap(fields ...interface{}) []zap.Field {
	var zapFields []zap.Field
	for i := 0; i+1 < len(fields); i += 2 {
		key, _ := fields[i].(string)
		if err, ok := fields[i+1].(error); ok {
			zapFields = append(zapFields, zap.NamedError(key, err))
			continue
		}
		zapFields = append(zapFields, zap.Any(key, fields[i+1]))
	}
	return zapFields
}
