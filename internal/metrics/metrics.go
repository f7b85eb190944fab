// Package metrics collects Prometheus counters for session lifecycle events.
// Instrumentation is advisory: nothing in the session manager gates on it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts session lifecycle outcomes.
type Collector struct {
	loginOutcomes    *prometheus.CounterVec
	refreshAttempts  prometheus.Counter
	refreshFailures  prometheus.Counter
	restoreOutcomes  *prometheus.CounterVec
	storeWriteErrors prometheus.Counter
	forcedLogouts    prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "elibrary_session_login_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "elibrary_session_refresh_attempts_total",
			Help: "Token refresh attempts, including retries.",
		}),
		refreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "elibrary_session_refresh_failures_total",
			Help: "Refresh events that exhausted all attempts.",
		}),
		restoreOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "elibrary_session_restore_total",
			Help: "Startup restorations by outcome.",
		}, []string{"outcome"}),
		storeWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "elibrary_session_store_write_errors_total",
			Help: "Credential store writes that failed.",
		}),
		forcedLogouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "elibrary_session_forced_logouts_total",
			Help: "Sessions cleared without an explicit user logout.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			c.loginOutcomes,
			c.refreshAttempts,
			c.refreshFailures,
			c.restoreOutcomes,
			c.storeWriteErrors,
			c.forcedLogouts,
		)
	}

	return c
}

// Nop returns a collector that records without being registered anywhere,
// for callers that do not care about metrics.
func Nop() *Collector {
	return NewCollector(nil)
}

func (c *Collector) RecordLogin(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.loginOutcomes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRefreshAttempt() {
	c.refreshAttempts.Inc()
}

func (c *Collector) RecordRefreshExhausted() {
	c.refreshFailures.Inc()
}

func (c *Collector) RecordRestore(outcome string) {
	c.restoreOutcomes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordStoreWriteError() {
	c.storeWriteErrors.Inc()
}

func (c *Collector) RecordForcedLogout() {
	c.forcedLogouts.Inc()
}
