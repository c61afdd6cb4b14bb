//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"friendship-backend/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogging,
	ProvideLogger,
	ProvideErrorHandler,
	ProvideAWSConfig,
	ProvideStore,
	ProvideResolver,
	ProvideEventPublisher,
	ProvideCollector,
	ProvideMetrics,
	ProvideTracer,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup releases
// the store.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
