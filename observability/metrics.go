package observability

import (
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// moduleMetrics counts gateway requests rejected before reaching a module.
type moduleMetrics struct {
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	chainMetricsOnce sync.Once
	chainRegistry    *ChainMetrics
)

// ModuleMetrics returns the process-wide throttle counters registered with
// the default Prometheus registry.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fd",
				Subsystem: "module",
				Name:      "throttles_total",
				Help:      "Requests rejected by the gateway rate limiter, by route group.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(moduleRegistry.throttles)
	})
	return moduleRegistry
}

// RecordThrottle counts a rejected request for module. Reasons are stable
// strings such as "rate_limit".
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// ChainMetrics tracks the block clock.
type ChainMetrics struct {
	height        prometheus.Gauge
	blockInterval prometheus.Gauge
	produceErrors prometheus.Counter
}

// NewChainMetrics builds chain collectors and registers them with reg.
func NewChainMetrics(reg prometheus.Registerer) *ChainMetrics {
	m := &ChainMetrics{
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fd",
			Subsystem: "chain",
			Name:      "height",
			Help:      "Current block height.",
		}),
		blockInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fd",
			Subsystem: "chain",
			Name:      "block_interval_seconds",
			Help:      "Wall-clock seconds between the last two produced blocks.",
		}),
		produceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fd",
			Subsystem: "chain",
			Name:      "produce_errors_total",
			Help:      "Count of failed block production attempts.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.height, m.blockInterval, m.produceErrors)
	}
	return m
}

// Chain exposes the process-wide chain metrics.
func Chain() *ChainMetrics {
	chainMetricsOnce.Do(func() {
		chainRegistry = NewChainMetrics(prometheus.DefaultRegisterer)
	})
	return chainRegistry
}

// SetHeight updates the height gauge.
func (m *ChainMetrics) SetHeight(height uint64) {
	if m == nil {
		return
	}
	m.height.Set(float64(height))
}

// RecordBlockInterval updates the block interval gauge with the supplied duration.
func (m *ChainMetrics) RecordBlockInterval(interval time.Duration) {
	if m == nil {
		return
	}
	seconds := interval.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.blockInterval.Set(seconds)
}

// RecordProduceError counts a failed block production attempt.
func (m *ChainMetrics) RecordProduceError() {
	if m == nil {
		return
	}
	m.produceErrors.Inc()
}

func bigToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	floatVal, acc := new(big.Float).SetInt(value).Float64()
	if acc != big.Exact {
		// Guard against NaN/Inf when conversion fails.
		if math.IsNaN(floatVal) || math.IsInf(floatVal, 0) {
			return 0
		}
	}
	return floatVal
}
