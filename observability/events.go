package observability

import (
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"fdchain/core/events"
	"fdchain/native/bank"
)

// BankMetrics derives deposit and DAO lock metrics from committed chain
// events. It satisfies events.Emitter so it can be attached to a runtime.
type BankMetrics struct {
	events     *prometheus.CounterVec
	opened     prometheus.Counter
	closed     *prometheus.CounterVec
	principal  prometheus.Gauge
	interest   prometheus.Counter
	penalties  prometheus.Counter
	daoActions *prometheus.CounterVec
	failures   *prometheus.CounterVec
	height     prometheus.Gauge
}

var (
	bankMetricsOnce sync.Once
	bankRegistry    *BankMetrics
)

// NewBankMetrics builds the bank collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewBankMetrics(reg prometheus.Registerer) *BankMetrics {
	m := &BankMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fd",
			Subsystem: "events",
			Name:      "total",
			Help:      "Count of committed chain events segmented by type.",
		}, []string{"type"}),
		opened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fd",
			Subsystem: "bank",
			Name:      "deposits_opened_total",
			Help:      "Count of fixed deposits opened.",
		}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fd",
			Subsystem: "bank",
			Name:      "deposits_closed_total",
			Help:      "Count of fixed deposits closed segmented by settlement path.",
		}, []string{"path"}),
		principal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fd",
			Subsystem: "bank",
			Name:      "principal_reserved",
			Help:      "Principal currently reserved by open deposits.",
		}),
		interest: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fd",
			Subsystem: "bank",
			Name:      "interest_paid_total",
			Help:      "Interest transferred from the treasury to depositors.",
		}),
		penalties: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fd",
			Subsystem: "bank",
			Name:      "penalties_collected_total",
			Help:      "Penalties transferred from depositors to the treasury.",
		}),
		daoActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fd",
			Subsystem: "bank",
			Name:      "dao_lock_actions_total",
			Help:      "Count of DAO lock changes segmented by action.",
		}, []string{"action"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fd",
			Subsystem: "bank",
			Name:      "failures_total",
			Help:      "Count of rejected bank operations segmented by operation and error class.",
		}, []string{"operation", "class"}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fd",
			Subsystem: "bank",
			Name:      "last_event_height",
			Help:      "Height of the most recent committed event.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.events, m.opened, m.closed, m.principal, m.interest, m.penalties,
			m.daoActions, m.failures, m.height)
	}
	return m
}

// Bank returns the process-wide bank metrics registered with the default
// Prometheus registerer.
func Bank() *BankMetrics {
	bankMetricsOnce.Do(func() {
		bankRegistry = NewBankMetrics(prometheus.DefaultRegisterer)
	})
	return bankRegistry
}

// Emit implements events.Emitter.
func (m *BankMetrics) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	payload := evt.Event()
	if payload == nil {
		return
	}
	m.events.WithLabelValues(payload.Type).Inc()
	if payload.Height > 0 {
		m.height.Set(float64(payload.Height))
	}
	switch payload.Type {
	case bank.EventTypeDepositOpened:
		m.opened.Inc()
		m.principal.Add(attrFloat(payload.Attr("principal")))
	case bank.EventTypeDepositClosed:
		path := "premature"
		if matured, _ := strconv.ParseBool(payload.Attr("matured")); matured {
			path = "matured"
		}
		m.closed.WithLabelValues(path).Inc()
		m.principal.Sub(attrFloat(payload.Attr("principal")))
		m.interest.Add(attrFloat(payload.Attr("interest")))
		m.penalties.Add(attrFloat(payload.Attr("penalty")))
	case bank.EventTypeDAOLocked:
		m.daoActions.WithLabelValues("lock").Inc()
	case bank.EventTypeDAOUnlocked:
		m.daoActions.WithLabelValues("unlock").Inc()
	}
}

// RecordFailure counts a rejected operation by the class of its error.
func (m *BankMetrics) RecordFailure(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = "unknown"
	}
	m.failures.WithLabelValues(operation, string(bank.Classify(err))).Inc()
}

func attrFloat(raw string) float64 {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return 0
	}
	return bigToFloat(value)
}
