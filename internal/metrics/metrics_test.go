package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()

	c, err := New(reg)
	if err != nil {
		t.Fatal(err)
	}

	c.ObserveAttempt()
	c.ObserveAttempt()
	c.ObserveRetry()
	c.ObserveOutcome(OutcomeSuccess)
	c.ObserveOutcome("timeout")
	c.ObserveOutcome(OutcomeSuccess)
	c.ObserveTiming(50*time.Millisecond, 20*time.Millisecond)
	c.ObserveSlow()
	c.AddInFlight(2)
	c.AddInFlight(-1)
	c.SetStopped()
	c.SetProgress(42)

	if v := testutil.ToFloat64(c.attempts); v != 2 {
		t.Fatalf("expected 2 attempts, got %v", v)
	}

	if v := testutil.ToFloat64(c.retries); v != 1 {
		t.Fatalf("expected 1 retry, got %v", v)
	}

	if v := testutil.ToFloat64(c.calls.WithLabelValues(OutcomeSuccess)); v != 2 {
		t.Fatalf("expected 2 successful calls, got %v", v)
	}

	if v := testutil.ToFloat64(c.calls.WithLabelValues("timeout")); v != 1 {
		t.Fatalf("expected 1 timeout call, got %v", v)
	}

	if v := testutil.ToFloat64(c.inFlight); v != 1 {
		t.Fatalf("expected 1 in flight, got %v", v)
	}

	if v := testutil.ToFloat64(c.stopped); v != 1 {
		t.Fatalf("expected stopped gauge to be 1, got %v", v)
	}

	if v := testutil.ToFloat64(c.progress); v != 42 {
		t.Fatalf("expected progress 42, got %v", v)
	}

	if n := testutil.CollectAndCount(c.clientLatency); n != 1 {
		t.Fatalf("expected one latency histogram, got %d", n)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector

	c.ObserveAttempt()
	c.ObserveRetry()
	c.ObserveOutcome(OutcomeSkipped)
	c.ObserveTiming(time.Second, time.Second)
	c.ObserveSlow()
	c.AddInFlight(1)
	c.SetStopped()
	c.SetProgress(100)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()

	if _, err := New(reg); err != nil {
		t.Fatal(err)
	}

	if _, err := New(reg); err == nil {
		t.Fatal("expected second registration on the same registry to fail")
	}
}
