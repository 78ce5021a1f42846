package loadtester

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatLatencyAutoScales(t *testing.T) {
	cases := []struct {
		d   time.Duration
		exp string
	}{
		{20 * time.Millisecond, "20.00 ms"},
		{999990 * time.Microsecond, "999.99 ms"},
		{time.Second, "1.00 s"},
		{1500 * time.Millisecond, "1.50 s"},
		{0, "0.00 ms"},
	}

	for _, tc := range cases {
		if v := formatLatency(tc.d); v != tc.exp {
			t.Errorf("%s: expected %q, got %q", tc.d, tc.exp, v)
		}
	}
}

func TestWriteReport(t *testing.T) {
	r := Result{
		Aggregates: Aggregates{
			Completed:     10,
			TotalErrors:   2,
			TotalTimeouts: 1,
		},
		NumCalls:   10,
		Elapsed:    2500 * time.Millisecond,
		AvgLatency: 20 * time.Millisecond,
		Throughput: 4,
	}

	var buf bytes.Buffer
	if err := r.WriteReport(&buf); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, line := range []string{
		"Test time: 2.50 s\n",
		"Number of calls: 10\n",
		"Number of requests/sec: 4.00\n",
		"Average API latency: 20.00 ms\n",
		"Total errors: 2\n",
		"Total timeouts: 1\n",
	} {
		if !strings.Contains(out, line) {
			t.Errorf("expected report to contain %q, got:\n%s", line, out)
		}
	}

	if !strings.HasPrefix(out, "\n") {
		t.Error("expected report to start on a fresh line after the progress indicator")
	}
}

func TestConsoleProgress(t *testing.T) {
	var buf bytes.Buffer

	p := NewConsoleProgress(&buf)
	p.Report(12.345)
	p.Report(100)

	if v := buf.String(); v != "\rProgress: 12.3%\rProgress: 100.0%" {
		t.Fatalf("unexpected progress output %q", v)
	}
}
