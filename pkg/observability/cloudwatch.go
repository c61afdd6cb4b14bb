package observability

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// maxDatumsPerPut keeps each PutMetricData request well under the API limits
const maxDatumsPerPut = 150

// PutMetricDataAPI is the part of the CloudWatch client the recorder uses
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchRecorder buffers data points and sends them on Flush. It suits
// Lambda, where a scrape endpoint is unavailable and each invocation flushes
// before returning.
type CloudWatchRecorder struct {
	namespace string
	client    PutMetricDataAPI
	logger    *zap.Logger

	mu     sync.Mutex
	buffer []types.MetricDatum
}

// NewCloudWatchRecorder creates a recorder publishing to namespace
func NewCloudWatchRecorder(namespace string, client PutMetricDataAPI, logger *zap.Logger) *CloudWatchRecorder {
	return &CloudWatchRecorder{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordRequest records one HTTP request
func (m *CloudWatchRecorder) RecordRequest(method, route string, status int, duration time.Duration) {
	dims := []types.Dimension{
		dimension("Method", method),
		dimension("Route", route),
		dimension("Status", strconv.Itoa(status)),
	}
	m.add(
		datum("RequestLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
		datum("RequestCount", 1, types.StandardUnitCount, dims),
	)
}

// RecordOperation records one command or query
func (m *CloudWatchRecorder) RecordOperation(operation string, success bool, duration time.Duration) {
	dims := []types.Dimension{
		dimension("Operation", operation),
		dimension("Status", outcome(success)),
	}
	m.add(
		datum("OperationLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
		datum("OperationCount", 1, types.StandardUnitCount, dims),
	)
}

// RecordResolve records one friend degree resolution
func (m *CloudWatchRecorder) RecordResolve(degree int, resultSize int, duration time.Duration) {
	dims := []types.Dimension{dimension("Degree", strconv.Itoa(degree))}
	m.add(
		datum("ResolveLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
		datum("ResolveResultSize", float64(resultSize), types.StandardUnitCount, dims),
	)
}

// Pending returns the number of buffered data points
func (m *CloudWatchRecorder) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buffer)
}

// Flush sends every buffered data point. Points from a failed request are dropped.
func (m *CloudWatchRecorder) Flush(ctx context.Context) error {
	m.mu.Lock()
	pending := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	var firstErr error
	for start := 0; start < len(pending); start += maxDatumsPerPut {
		end := start + maxDatumsPerPut
		if end > len(pending) {
			end = len(pending)
		}

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: pending[start:end],
		})
		if err != nil {
			m.logger.Warn("Failed to send metrics",
				zap.Int("datums", end-start),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("put metric data: %w", err)
			}
		}
	}
	return firstErr
}

func (m *CloudWatchRecorder) add(datums ...types.MetricDatum) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffer = append(m.buffer, datums...)
}

func dimension(name, value string) types.Dimension {
	return types.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func datum(name string, value float64, unit types.StandardUnit, dims []types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
	}
}
