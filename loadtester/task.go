package loadtester

import (
	"context"
)

//
// interfaces
//

// Caller performs exactly one call attempt
//
// A Caller is shared by every worker so it must be safe for concurrent use.
// It must never return a nil timing and a nil error together; when err is non-nil
// the timing is ignored.
//
// The context carries metadata about the attempt, see GetCallMetadata.
type Caller interface {
	Call(ctx context.Context) (CallTiming, *CallError)
}

// CallerFunc adapts a plain function to the Caller interface
type CallerFunc func(ctx context.Context) (CallTiming, *CallError)

func (f CallerFunc) Call(ctx context.Context) (CallTiming, *CallError) {
	return f(ctx)
}

// ProgressSink receives the percentage of requested calls that have completed.
//
// Report is invoked from the single aggregation goroutine.
type ProgressSink interface {
	Report(percentComplete float64)
}

