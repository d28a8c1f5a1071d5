package obs

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot write and load outcomes.
const (
	SnapshotWritten = "written"
	SnapshotSkipped = "skipped"
	SnapshotHit     = "hit"
	SnapshotMiss    = "miss"
	SnapshotError   = "error"
)

var (
	domainOnce sync.Once

	// QuoteActionsTotal counts dispatched quote actions by type.
	QuoteActionsTotal *prometheus.CounterVec
	// SnapshotWritesTotal counts snapshot save outcomes.
	SnapshotWritesTotal *prometheus.CounterVec
	// SnapshotLoadsTotal counts snapshot load outcomes.
	SnapshotLoadsTotal *prometheus.CounterVec
	// HydrationsTotal counts session hydrations, split by product preselection.
	HydrationsTotal *prometheus.CounterVec
	// ActiveSessions reports the number of live quote sessions.
	ActiveSessions prometheus.Gauge
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_actions_total",
			Help:      "Count of dispatched quote actions by type.",
		}, []string{"action"})
		SnapshotWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_snapshot_writes_total",
			Help:      "Count of snapshot save attempts by outcome.",
		}, []string{"result"})
		SnapshotLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_snapshot_loads_total",
			Help:      "Count of snapshot loads by outcome.",
		}, []string{"result"})
		HydrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_hydrations_total",
			Help:      "Count of quote session hydrations.",
		}, []string{"preselected"})
		ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quote_sessions_active",
			Help:      "Number of quote sessions held in memory.",
		})

		mustRegisterCollector(reg, QuoteActionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteActionsTotal = v
			}
		})
		mustRegisterCollector(reg, SnapshotWritesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SnapshotWritesTotal = v
			}
		})
		mustRegisterCollector(reg, SnapshotLoadsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SnapshotLoadsTotal = v
			}
		})
		mustRegisterCollector(reg, HydrationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				HydrationsTotal = v
			}
		})
		mustRegisterCollector(reg, ActiveSessions, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				ActiveSessions = v
			}
		})
	})
}

// RecordQuoteAction increments the action counter when domain metrics are registered.
func RecordQuoteAction(action string) {
	if QuoteActionsTotal != nil {
		QuoteActionsTotal.WithLabelValues(action).Inc()
	}
}

// RecordSnapshotWrite records a snapshot save outcome.
func RecordSnapshotWrite(result string) {
	if SnapshotWritesTotal != nil {
		SnapshotWritesTotal.WithLabelValues(result).Inc()
	}
}

// RecordSnapshotLoad records a snapshot load outcome.
func RecordSnapshotLoad(result string) {
	if SnapshotLoadsTotal != nil {
		SnapshotLoadsTotal.WithLabelValues(result).Inc()
	}
}

// RecordHydration records a completed hydration.
func RecordHydration(preselected bool) {
	if HydrationsTotal != nil {
		HydrationsTotal.WithLabelValues(strconv.FormatBool(preselected)).Inc()
	}
}

// SetActiveSessions publishes the current session count.
func SetActiveSessions(n int) {
	if ActiveSessions != nil {
		ActiveSessions.Set(float64(n))
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
