package main

import (
	"context"
	"log"
	"time"

	"friendship-backend/infrastructure/config"
	"friendship-backend/infrastructure/di"
	"friendship-backend/interfaces/http/rest"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	// chiLambda wraps the Chi router for AWS Lambda integration
	chiLambda *chiadapter.ChiLambdaV2

	container *di.Container

	// coldStart tracks whether this is a cold start invocation
	coldStart = true
)

// init runs during cold start
func init() {
	started := time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.IsLambda = true

	// The store lives as long as the execution environment, so the cleanup is
	// never called.
	container, _, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	chiRouter, ok := rest.NewRouter(container).Setup().(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	container.Logger.Info("Lambda cold start completed", zap.Duration("duration", time.Since(started)))
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	container.Logger.Debug("Lambda received request",
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("request_id", req.RequestContext.RequestID),
		zap.Bool("cold_start", coldStart),
	)
	coldStart = false

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	// Buffered CloudWatch data points must leave before the environment freezes.
	if flushErr := container.FlushMetrics(ctx); flushErr != nil {
		container.Logger.Warn("Failed to flush metrics", zap.Error(flushErr))
	}

	return resp, err
}

func main() {
	lambda.Start(Handler)
}
