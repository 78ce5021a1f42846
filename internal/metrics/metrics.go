// Package metrics exposes the progress and outcome counters of a loadtest run as prometheus collectors.
//
// A nil *Collector is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rpcload"

// Outcome label values beyond the call error kinds
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
)

type Collector struct {
	calls         *prometheus.CounterVec
	attempts      prometheus.Counter
	retries       prometheus.Counter
	slow          prometheus.Counter
	inFlight      prometheus.Gauge
	stopped       prometheus.Gauge
	progress      prometheus.Gauge
	clientLatency prometheus.Histogram
	serverTime    prometheus.Histogram
}

func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Logical calls completed, by outcome.",
		}, []string{"outcome"}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Requests sent, retries included.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Attempts repeated after a transport failure or timeout.",
		}),
		slow: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slow_responses_total",
			Help:      "Successful calls whose server time reached the slow threshold.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calls_in_flight",
			Help:      "Logical calls currently held by a worker.",
		}),
		stopped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stopped",
			Help:      "1 once the run was halted by an authorization failure.",
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "progress_percent",
			Help:      "Completed calls as a percentage of requested calls.",
		}),
		clientLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "client_latency_seconds",
			Help:      "Client observed time not attributed to the server.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		serverTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "server_time_seconds",
			Help:      "Time from request written to first response byte.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		}),
	}

	for _, v := range []prometheus.Collector{
		c.calls,
		c.attempts,
		c.retries,
		c.slow,
		c.inFlight,
		c.stopped,
		c.progress,
		c.clientLatency,
		c.serverTime,
	} {
		if err := reg.Register(v); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return c, nil
}

func (c *Collector) ObserveAttempt() {
	if c == nil {
		return
	}
	c.attempts.Inc()
}

func (c *Collector) ObserveRetry() {
	if c == nil {
		return
	}
	c.retries.Inc()
}

func (c *Collector) ObserveOutcome(outcome string) {
	if c == nil {
		return
	}
	c.calls.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveTiming(serverTime, clientLatency time.Duration) {
	if c == nil {
		return
	}
	c.serverTime.Observe(serverTime.Seconds())
	c.clientLatency.Observe(clientLatency.Seconds())
}

func (c *Collector) ObserveSlow() {
	if c == nil {
		return
	}
	c.slow.Inc()
}

func (c *Collector) AddInFlight(delta float64) {
	if c == nil {
		return
	}
	c.inFlight.Add(delta)
}

func (c *Collector) SetStopped() {
	if c == nil {
		return
	}
	c.stopped.Set(1)
}

func (c *Collector) SetProgress(percent float64) {
	if c == nil {
		return
	}
	c.progress.Set(percent)
}
