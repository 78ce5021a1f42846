package loadtester

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/josephcopenhaver/rpcload-go/internal/metrics"
)

// retryController drives one logical call through its attempts
//
// Only transport failures and timeouts are retried. Any http status
// error is terminal and a 401 additionally raises the stop signal.
type retryController struct {
	caller     Caller
	retryCount int
	backoff    time.Duration
	stop       *StopSignal
	sleeper    Sleeper
	clock      Clock
	runID      string
	logger     *zap.SugaredLogger
	metrics    *metrics.Collector
}

var errStoppedBeforeAttempt = &CallError{
	Kind:    ErrorKindCancelled,
	Message: "run stopping, no further attempts",
}

func (rc *retryController) run(ctx context.Context, taskIndex int, enqueueTime time.Time) CallOutcome {
	out := CallOutcome{TaskIndex: taskIndex}

	state := callStateAttempting
	var attempt int
	for !state.terminal() {
		if rc.stop.IsSet() || ctx.Err() != nil {
			state = callStateCancelled
			out.Err = errStoppedBeforeAttempt
			break
		}

		timing, cerr := rc.attempt(ctx, taskIndex, attempt, enqueueTime)
		out.Attempts++

		switch {
		case cerr == nil:
			state = callStateSucceeded
			out.Timing = &timing
		case cerr.Kind == ErrorKindCancelled:
			state = callStateCancelled
			out.Err = cerr
		case cerr.Unauthorized():
			state = callStateFailedTerminal
			out.Err = cerr
			if rc.stop.Set() {
				rc.metrics.SetStopped()
			}
		case cerr.Kind.retryable() && attempt < rc.retryCount:
			attempt++
			rc.sleeper.Sleep(ctx, rc.backoff)
			rc.metrics.ObserveRetry()

			msg := "transport error, retrying"
			if cerr.Kind == ErrorKindTimeout {
				msg = "timeout error, retrying"
			}
			rc.logger.Warnw(
				msg,
				"task", taskIndex,
				"attempt", attempt,
				"error", cerr,
			)

			state = callStateRetrying
		default:
			state = callStateFailedTerminal
			out.Err = cerr
		}
	}

	if state == callStateFailedTerminal {
		rc.logger.Warnw(
			"call failed",
			"task", taskIndex,
			"attempts", out.Attempts,
			"kind", out.Err.Kind.String(),
			"status_code", out.Err.StatusCode,
			"error", out.Err,
		)
	}

	return out
}

func (rc *retryController) attempt(ctx context.Context, taskIndex, attempt int, enqueueTime time.Time) (CallTiming, *CallError) {
	cm := newCallMetadata()
	defer releaseCallMetadata(cm)

	cm.callMetadataState = callMetadataState{
		runID:       rc.runID,
		taskIndex:   taskIndex,
		attempt:     attempt,
		enqueueTime: enqueueTime,
		dequeueTime: rc.clock.Now(),
	}

	rc.metrics.ObserveAttempt()

	return rc.caller.Call(injectCallMetadataProvider(ctx, cm))
}
