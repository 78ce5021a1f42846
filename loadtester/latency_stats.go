package loadtester

import (
	"math"
	"time"

	"github.com/codahale/hdrhistogram"
)

const (
	// histogram range in microseconds: up to one hour, 3 significant figures
	latencyHistMax     = int64(time.Hour / time.Microsecond)
	latencyHistSigFigs = 3
)

// latencyStats summarizes the client latency of successful calls
//
// It is owned by the aggregator and never shared.
type latencyStats struct {
	count    int
	variance welfordVariance
	hist     *hdrhistogram.Histogram
}

func newLatencyStats() *latencyStats {
	return &latencyStats{
		hist: hdrhistogram.New(0, latencyHistMax, latencyHistSigFigs),
	}
}

func (ls *latencyStats) add(d time.Duration) {
	if d < 0 {
		d = 0
	}

	ls.count++
	ls.variance.Update(ls.count, float64(d))

	us := int64(d / time.Microsecond)
	if us > latencyHistMax {
		us = latencyHistMax
	}
	_ = ls.hist.RecordValue(us) // in range by construction
}

// percentile returns the latency at p in [0, 100]; zero when nothing was recorded
func (ls *latencyStats) percentile(p float64) time.Duration {
	if ls.count == 0 {
		return 0
	}

	return time.Duration(ls.hist.ValueAtQuantile(p)) * time.Microsecond
}

// stdDev returns NaN with fewer than two samples
func (ls *latencyStats) stdDev() float64 {
	return math.Sqrt(ls.variance.Variance(ls.count))
}

// https://en.wikipedia.org/wiki/Algorithms_for_calculating_variance#Welford's_online_algorithm

type welfordVariance struct {
	mean, m2 float64
}

// Update requires the value v to always be a valid finite non-negative float64
func (wv *welfordVariance) Update(count int, v float64) {
	delta := v - wv.mean
	wv.mean += delta / float64(count)
	delta2 := v - wv.mean
	// if statement defends against the addition of negative epsilon
	if m2Delta := delta * delta2; m2Delta > 0 {
		wv.m2 += m2Delta
	}
}

// Variance is the population variance of the values seen so far
func (wv *welfordVariance) Variance(count int) float64 {
	if count < 2 {
		return math.NaN()
	}

	result := wv.m2 / float64(count)
	if result < 0 {
		result = 0
	}
	return result
}
