package loadtester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/josephcopenhaver/rpcload-go/internal/metrics"
)

var ErrAlreadyRan = errors.New("loadtest already ran")

// Loadtest issues a fixed number of calls over a bounded set of workers
// and aggregates their outcomes as they complete.
//
// A Loadtest runs once.
type Loadtest struct {
	cfg     loadtestConfig
	runID   string
	stop    StopSignal
	retry   *retryController
	logger  *zap.SugaredLogger
	metrics *metrics.Collector
	ran     atomic.Bool
}

func NewLoadtest(caller Caller, options ...LoadtestOption) (*Loadtest, error) {
	if caller == nil {
		return nil, ErrNilCaller
	}

	cfg := newLoadtestConfig()

	for _, op := range options {
		op(&cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	runID := cfg.runID
	if runID == "" {
		runID = uuid.NewString()
	}

	logger := cfg.logger
	if logger == nil {
		logger = Logger
	}
	logger = logger.With("run_id", runID)

	var mc *metrics.Collector
	if cfg.registerer != nil {
		v, err := metrics.New(cfg.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to create loadtest metrics: %w", err)
		}
		mc = v
	}

	lt := &Loadtest{
		cfg:     cfg,
		runID:   runID,
		logger:  logger,
		metrics: mc,
	}

	lt.retry = &retryController{
		caller:     caller,
		retryCount: cfg.retryCount,
		backoff:    cfg.retryBackoff,
		stop:       &lt.stop,
		sleeper:    cfg.sleeper,
		clock:      cfg.clock,
		runID:      runID,
		logger:     logger,
		metrics:    mc,
	}

	return lt, nil
}

func (lt *Loadtest) RunID() string {
	return lt.runID
}

// StopSignal is set once an authorization failure halts the run
func (lt *Loadtest) StopSignal() *StopSignal {
	return &lt.stop
}

// Run performs the loadtest and returns its result.
//
// Individual call failures never fail the run. Cancelling ctx aborts
// in-flight requests, skips calls not yet started and still returns
// the partial result.
func (lt *Loadtest) Run(ctx context.Context) (Result, error) {
	if !lt.ran.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRan
	}

	lt.logger.Infow(
		"loadtest starting",
		"num_calls", lt.cfg.numCalls,
		"num_workers", lt.cfg.numWorkers,
		"retry_count", lt.cfg.retryCount,
	)

	agg := newAggregator(lt.cfg, &lt.stop, lt.logger, lt.metrics)

	start := lt.cfg.clock.Now()

	results := make(chan CallOutcome, lt.cfg.numWorkers)
	go lt.dispatch(ctx, results)

	// completion order, single consumer
	for o := range results {
		agg.onOutcome(o)
	}

	result := agg.result(lt.cfg.clock.Now().Sub(start))

	lt.logger.Infow(
		"loadtest finished",
		"elapsed", result.Elapsed,
		"completed", result.Completed,
		"skipped", result.Skipped,
		"errors", result.TotalErrors,
		"timeouts", result.TotalTimeouts,
		"stopped", result.Stopped,
		"interrupted", ctx.Err() != nil,
	)

	return result, nil
}

// dispatch submits every call in order; the worker limit is the only admission control
//
// Once the run is stopping no further calls are submitted. Calls already
// handed to the pool still run and short circuit before their first attempt.
func (lt *Loadtest) dispatch(ctx context.Context, results chan<- CallOutcome) {
	defer close(results)

	var g errgroup.Group
	g.SetLimit(lt.cfg.numWorkers)

	for i := 0; i < lt.cfg.numCalls; i++ {
		if lt.stop.IsSet() || ctx.Err() != nil {
			lt.logger.Debugw(
				"no longer submitting calls",
				"submitted", i,
			)
			break
		}

		taskIndex := i
		enqueueTime := lt.cfg.clock.Now()
		g.Go(func() error {
			results <- lt.doTask(ctx, taskIndex, enqueueTime)
			return nil
		})
	}

	_ = g.Wait() // tasks never return errors
}

func (lt *Loadtest) doTask(ctx context.Context, taskIndex int, enqueueTime time.Time) (result CallOutcome) {
	lt.metrics.AddInFlight(1)
	defer lt.metrics.AddInFlight(-1)

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		msg := panicMessage(r)

		lt.logger.Errorw(
			"worker recovered from panic",
			"task", taskIndex,
			"error", msg,
		)

		result = CallOutcome{
			TaskIndex: taskIndex,
			Attempts:  1,
			Panicked:  true,
			Err: &CallError{
				Kind:    ErrorKindTransport,
				Message: "caller panicked: " + msg,
			},
		}
	}()

	return lt.retry.run(ctx, taskIndex, enqueueTime)
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case []byte:
		return string(v)
	case string:
		return v
	default:
		const msg = "unknown cause"
		return msg
	}
}
