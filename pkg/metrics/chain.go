package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ChainMetrics records transaction outcomes per contract method.
type ChainMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	reverts  *prometheus.CounterVec
}

// NewChainMetrics registers the chain metrics on the provided registerer.
func NewChainMetrics(reg prometheus.Registerer) *ChainMetrics {
	if reg == nil {
		return &ChainMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chain_tx_duration_seconds",
		Help:    "Duration of submitted transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"contract", "method"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chain_tx_success",
		Help: "Successfully mined transactions.",
	}, []string{"contract", "method"})
	reverts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chain_tx_reverts",
		Help: "Reverted transactions by custom error name.",
	}, []string{"contract", "method", "reason"})
	reg.MustRegister(duration, success, reverts)
	return &ChainMetrics{
		duration: duration,
		success:  success,
		reverts:  reverts,
	}
}

// ObserveDuration records how long a transaction took end to end.
func (c *ChainMetrics) ObserveDuration(contract, method string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(contract), normalizeLabel(method)).Observe(duration.Seconds())
}

// IncSuccess increments the mined-transaction counter.
func (c *ChainMetrics) IncSuccess(contract, method string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(contract), normalizeLabel(method)).Inc()
}

// IncRevert increments the revert counter for the named custom error.
func (c *ChainMetrics) IncRevert(contract, method, reason string) {
	if c == nil || c.reverts == nil {
		return
	}
	c.reverts.WithLabelValues(normalizeLabel(contract), normalizeLabel(method), normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
