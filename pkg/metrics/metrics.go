package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hops", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hops", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hops", Name: "store_operations_total", Help: "Record store operations by operation and outcome (ok|invalid|not_found|error)."},
		[]string{"operation", "outcome"},
	)
	ValidationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hops", Name: "validation_failures_total", Help: "Rejected hop fields by field name."},
		[]string{"field"},
	)
	FlashMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hops", Name: "flash_messages_total", Help: "Flash messages queued by key."},
		[]string{"key"},
	)
)

// RegisterCollectors registers every collector of this package on reg.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(StoreOperations)
	reg.MustRegister(ValidationFailures)
	reg.MustRegister(FlashMessages)
}
