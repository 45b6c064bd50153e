package board

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels.
const (
	opWrite  = "write"
	opRead   = "read"
	opMeta   = "meta"
	opList   = "list"
	opDelete = "delete"
	opPrune  = "prune"
)

type metrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pins_operations_total",
			Help: "Board operations by outcome.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pins_operation_duration_seconds",
			Help:    "Board operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	m.ops = register(reg, m.ops)
	m.duration = register(reg, m.duration)
	return m
}

// register adds c to reg, reusing an identical collector that is already
// registered, e.g. when several boards share one registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

// observe starts timing op. The returned func records the outcome held in
// *errp and is meant to be deferred. A nil receiver records nothing.
func (m *metrics) observe(op string) func(errp *error) {
	if m == nil {
		return func(*error) {}
	}
	start := time.Now()
	return func(errp *error) {
		result := "ok"
		if errp != nil && *errp != nil {
			result = "error"
		}
		m.ops.WithLabelValues(op, result).Inc()
		m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
