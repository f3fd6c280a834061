// Package circuitbreaker keeps one breaker per remote host so that a failing
// endpoint is short-circuited without affecting the others.
package circuitbreaker

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/yourorg/komoju-gateway/internal/adapter"
	"github.com/yourorg/komoju-gateway/internal/config"
)

var breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "komoju_circuit_breaker_state",
	Help: "Circuit breaker state per host (0=closed, 1=half-open, 2=open).",
}, []string{"host"})

// GetBreakerState exposes the state gauge for tests and dashboards.
func GetBreakerState() *prometheus.GaugeVec {
	return breakerState
}

// Registry lazily creates a gobreaker.CircuitBreaker per host.
type Registry struct {
	settings config.CircuitBreakerConfig
	log      *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewRegistry creates a Registry. A disabled config yields a pass-through
// registry whose Execute never rejects.
func NewRegistry(cfg config.CircuitBreakerConfig, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		settings: cfg,
		log:      log,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Execute runs fn through the breaker for host.
// When the breaker is open fn is not called and gobreaker.ErrOpenState
// (or ErrTooManyRequests while half-open) is returned.
func (r *Registry) Execute(host string, fn func() ([]byte, error)) ([]byte, error) {
	if !r.settings.Enabled {
		return fn()
	}
	out, err := r.breaker(host).Execute(func() (interface{}, error) {
		return fn()
	})
	body, _ := out.([]byte)
	return body, err
}

// State reports the breaker state for host. Unknown hosts are closed.
func (r *Registry) State(host string) gobreaker.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, ok := r.breakers[host]
	if !ok {
		return gobreaker.StateClosed
	}
	return cb.State()
}

// IsRejection reports whether err came from an open or saturated breaker.
func IsRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (r *Registry) breaker(host string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[host]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: r.settings.MaxRequests,
		Interval:    r.settings.Interval,
		Timeout:     r.settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < r.settings.MinRequests || counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= r.settings.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(float64(to))
			r.log.Warn("Circuit breaker state changed",
				zap.String("host", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isSuccessful,
	})
	r.breakers[host] = cb
	breakerState.WithLabelValues(host).Set(float64(gobreaker.StateClosed))
	return cb
}

// isSuccessful counts business rejections (4xx) as healthy exchanges. Only
// network failures and 5xx responses move the breaker towards open.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var tErr *adapter.TransportError
	if errors.As(err, &tErr) {
		return tErr.StatusCode != 0 && tErr.StatusCode < http.StatusInternalServerError
	}
	return false
}
