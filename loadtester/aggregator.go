package loadtester

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/josephcopenhaver/rpcload-go/internal/metrics"
)

// DefaultSlowThreshold is the server time at or above which a successful
// call is counted as a timeout. It is unrelated to the request timeout.
const DefaultSlowThreshold = 2 * time.Second

// Aggregates are the run totals, accumulated in completion order
type Aggregates struct {
	Completed int
	// Skipped counts requested calls that never reached the Caller
	Skipped int

	TotalServerTime    time.Duration
	TotalClientLatency time.Duration
	TotalErrors        int
	TotalTimeouts      int
}

// aggregator is the single consumer of call outcomes
//
// Only the results goroutine touches it so none of its state is locked.
type aggregator struct {
	numCalls      int
	slowThreshold time.Duration
	progress      ProgressSink
	stop          *StopSignal
	logger        *zap.SugaredLogger
	metrics       *metrics.Collector

	agg     Aggregates
	latency *latencyStats
	stopped bool
}

func newAggregator(cfg loadtestConfig, stop *StopSignal, logger *zap.SugaredLogger, mc *metrics.Collector) *aggregator {
	return &aggregator{
		numCalls:      cfg.numCalls,
		slowThreshold: cfg.slowThreshold,
		progress:      cfg.progress,
		stop:          stop,
		logger:        logger,
		metrics:       mc,
		latency:       newLatencyStats(),
	}
}

func (a *aggregator) onOutcome(o CallOutcome) {
	if o.Skipped() {
		a.metrics.ObserveOutcome(metrics.OutcomeSkipped)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			a.agg.TotalErrors++
			a.logger.Errorw(
				"recovered from panic while aggregating outcome",
				"task", o.TaskIndex,
				"error", fmt.Sprint(r),
			)
		}
	}()
	defer a.reportProgress()

	a.agg.Completed++

	if o.Timing == nil && o.Err == nil {
		a.agg.TotalErrors++
		a.logger.Errorw(
			"malformed call outcome",
			"task", o.TaskIndex,
		)
		return
	}

	if o.Err != nil {
		a.agg.TotalErrors++
		a.metrics.ObserveOutcome(o.Err.Kind.String())

		if o.Err.Unauthorized() && !a.stopped {
			a.stopped = true
			a.stop.Set()
			a.metrics.SetStopped()
			a.logger.Errorw(
				"stopping execution due to unauthorized auth token",
				"task", o.TaskIndex,
			)
		}
	}

	if t := o.Timing; t != nil {
		a.agg.TotalServerTime += t.ServerTime
		a.agg.TotalClientLatency += t.ClientLatency
		a.latency.add(t.ClientLatency)
		a.metrics.ObserveTiming(t.ServerTime, t.ClientLatency)

		if o.Err == nil {
			a.metrics.ObserveOutcome(metrics.OutcomeSuccess)
		}

		if t.ServerTime >= a.slowThreshold {
			a.agg.TotalTimeouts++
			a.metrics.ObserveSlow()
			a.logger.Warnw(
				"slow response counted as timeout",
				"task", o.TaskIndex,
				"server_time", t.ServerTime,
				"threshold", a.slowThreshold,
			)
		}
	}
}

func (a *aggregator) reportProgress() {
	percent := float64(a.agg.Completed) / float64(a.numCalls) * 100
	a.metrics.SetProgress(percent)
	if a.progress != nil {
		a.progress.Report(percent)
	}
}

// result computes the final figures.
//
// The average latency divides by the requested call count, not the
// completed count, so an early stop understates it.
func (a *aggregator) result(elapsed time.Duration) Result {
	a.agg.Skipped = a.numCalls - a.agg.Completed

	r := Result{
		Aggregates: a.agg,
		NumCalls:   a.numCalls,
		Elapsed:    elapsed,
		Stopped:    a.stopped,
		AvgLatency: a.agg.TotalClientLatency / time.Duration(a.numCalls),
		P50:        a.latency.percentile(50),
		P90:        a.latency.percentile(90),
		P99:        a.latency.percentile(99),
	}

	if sd := a.latency.stdDev(); !math.IsNaN(sd) {
		r.LatencyStdDev = time.Duration(sd)
	}

	if s := elapsed.Seconds(); s > 0 {
		r.Throughput = float64(a.numCalls) / s
	}

	return r
}
