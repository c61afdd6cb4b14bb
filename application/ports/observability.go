package ports

import (
	"context"
	"time"
)

// MetricsRecorder records request and operation metrics
type MetricsRecorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordOperation(operation string, success bool, duration time.Duration)
	RecordResolve(degree int, resultSize int, duration time.Duration)
}

// Flusher is implemented by recorders that buffer data points
type Flusher interface {
	Flush(ctx context.Context) error
}
