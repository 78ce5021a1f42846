package loadtester

import (
	"fmt"
	"io"
	"time"
)

// Result is the outcome of a whole run, handed to the report formatter
type Result struct {
	Aggregates

	NumCalls int
	Elapsed  time.Duration
	// Stopped is true when an authorization failure halted the run
	Stopped bool

	// AvgLatency is TotalClientLatency divided by NumCalls
	AvgLatency time.Duration
	// Throughput is NumCalls per second of wall clock
	Throughput float64

	P50, P90, P99 time.Duration
	LatencyStdDev time.Duration
}

// WriteReport renders the human readable summary
func (r Result) WriteReport(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"\nTest time: %.2f s\n"+
			"Number of calls: %d\n"+
			"Number of requests/sec: %.2f\n"+
			"Average API latency: %s\n"+
			"Latency p50/p90/p99: %s / %s / %s\n"+
			"Latency std dev: %s\n"+
			"Completed calls: %d\n"+
			"Skipped calls: %d\n"+
			"Total errors: %d\n"+
			"Total timeouts: %d\n",
		r.Elapsed.Seconds(),
		r.NumCalls,
		r.Throughput,
		formatLatency(r.AvgLatency),
		formatLatency(r.P50), formatLatency(r.P90), formatLatency(r.P99),
		formatLatency(r.LatencyStdDev),
		r.Completed,
		r.Skipped,
		r.TotalErrors,
		r.TotalTimeouts,
	)
	return err
}

// formatLatency scales to seconds from one second up
func formatLatency(d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)
	if ms < 1000 {
		return fmt.Sprintf("%.2f ms", ms)
	}

	return fmt.Sprintf("%.2f s", ms/1000)
}
