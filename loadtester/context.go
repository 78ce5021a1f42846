package loadtester

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// RootContext returns a context that is canceled when the
// system process receives an interrupt, sigint, or sigterm
//
// Cancelling it aborts in-flight requests and skips calls not yet started;
// the run still returns its partial result.
//
// Also returns a function that can be used to cancel the context.
func RootContext(logger *zap.SugaredLogger) (context.Context, func()) {
	if logger == nil {
		logger = Logger
	}

	ctx, cancel := context.WithCancel(context.Background())

	procDone := make(chan os.Signal, 1)

	signal.Notify(procDone, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer cancel()
		defer signal.Stop(procDone)

		done := ctx.Done()

		requester := "unknown"
		select {
		case <-procDone:
			requester = "user"
		case <-done:
			requester = "process"
		}

		logger.Warnw(
			"shutdown requested",
			"requester", requester,
		)
	}()

	return ctx, cancel
}
