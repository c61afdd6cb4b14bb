package di

import (
	"context"

	"friendship-backend/application/commands/bus"
	"friendship-backend/application/ports"
	querybus "friendship-backend/application/queries/bus"
	"friendship-backend/infrastructure/config"
	"friendship-backend/pkg/errors"
	"friendship-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logging      *Logging
	Logger       *zap.Logger
	ErrorHandler *errors.ErrorHandler
	Store        ports.Store
	Resolver     ports.FriendResolver
	Publisher    ports.EventPublisher
	Collector    *observability.Collector
	Metrics      ports.MetricsRecorder
	Tracer       *observability.Tracer
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
}

// FlushMetrics sends buffered data points when the recorder buffers them
func (c *Container) FlushMetrics(ctx context.Context) error {
	if f, ok := c.Metrics.(ports.Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}
