package komoju

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yourorg/komoju-gateway/internal/adapter"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "komoju_gateway_operations_total",
		Help: "Gateway operations by operation and outcome (success, a local error code or remote_error).",
	}, []string{"operation", "outcome"})

	operationDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "komoju_gateway_operation_duration_seconds",
		Help:    "Duration of gateway operations, including the remote call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// GetOperationsTotal exposes the operations counter for tests and dashboards.
func GetOperationsTotal() *prometheus.CounterVec {
	return operationsTotal
}

// GetOperationDurationSeconds exposes the operation latency histogram.
func GetOperationDurationSeconds() *prometheus.HistogramVec {
	return operationDurationSeconds
}

// outcomeRemoteError labels failures whose code came from the remote service.
const outcomeRemoteError = "remote_error"

// outcomeLabel keeps the outcome label bounded: remote codes are not
// enumerable, so only codes the adapter assigns itself are kept.
func outcomeLabel(resp adapter.Response) string {
	if resp.Success {
		return "success"
	}
	switch resp.ErrorCode {
	case adapter.ErrorCodeGatewayTimeout, adapter.ErrorCodeProcessingError, adapter.ErrorCodeMissingParameter:
		return resp.ErrorCode
	}
	return outcomeRemoteError
}

func observeOperation(operation string, resp adapter.Response, latency time.Duration) {
	operationsTotal.WithLabelValues(operation, outcomeLabel(resp)).Inc()
	operationDurationSeconds.WithLabelValues(operation).Observe(latency.Seconds())
}
