package loadtester

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	DefaultNumCalls     = 1000
	DefaultNumWorkers   = 100
	DefaultRetryBackoff = 1 * time.Second
)

var (
	ErrNilCaller         = errors.New("loadtest caller must not be nil")
	ErrInvalidNumCalls   = errors.New("number of calls must be greater than zero")
	ErrInvalidNumWorkers = errors.New("number of workers must be greater than zero")
	ErrInvalidRetryCount = errors.New("retry count must not be negative")
)

type loadtestConfig struct {
	numCalls      int
	numWorkers    int
	retryCount    int
	retryBackoff  time.Duration
	slowThreshold time.Duration
	progress      ProgressSink
	logger        *zap.SugaredLogger
	registerer    prometheus.Registerer
	clock         Clock
	sleeper       Sleeper
	runID         string
}

func newLoadtestConfig() loadtestConfig {
	return loadtestConfig{
		numCalls:      DefaultNumCalls,
		numWorkers:    DefaultNumWorkers,
		retryBackoff:  DefaultRetryBackoff,
		slowThreshold: DefaultSlowThreshold,
		clock:         wallClock{},
		sleeper:       timerSleeper{},
	}
}

func (cfg loadtestConfig) validate() error {
	if cfg.numCalls <= 0 {
		return ErrInvalidNumCalls
	}

	if cfg.numWorkers <= 0 {
		return ErrInvalidNumWorkers
	}

	if cfg.retryCount < 0 {
		return ErrInvalidRetryCount
	}

	return nil
}

type LoadtestOption func(*loadtestConfig)

// NumCalls sets the number of logical calls the loadtest performs
func NumCalls(n int) LoadtestOption {
	return func(cfg *loadtestConfig) {
		cfg.numCalls = n
	}
}

// NumWorkers bounds how many calls are in flight at once
func NumWorkers(n int) LoadtestOption {
	return func(cfg *loadtestConfig) {
		cfg.numWorkers = n
	}
}

// RetryCount is how many times a call is repeated after a transport failure or timeout
func RetryCount(n int) LoadtestOption {
	return func(cfg *loadtestConfig) {
		cfg.retryCount = n
	}
}

func RetryBackoff(d time.Duration) LoadtestOption {
	return func(cfg *loadtestConfig) {
		cfg.retryBackoff = d
	}
}

// SlowThreshold sets the server time at which a successful call also counts as a timeout
func SlowThreshold(d time.Duration) LoadtestOption {
	return func(cfg *loadtestConfig) {
		cfg.slowThreshold = d
	}
}

func Progress(p ProgressSink) LoadtestOption {
	return func(cfg *loadtestConfig) {
		cfg.progress = p
	}
}

// RunLogger replaces the package Logger for one loadtest
func RunLogger(logger *zap.SugaredLogger) LoadtestOption {
	return func(cfg *loadtestConfig) {
		cfg.logger = logger
	}
}

// MetricsRegisterer enables prometheus metrics for the run
func MetricsRegisterer(reg prometheus.Registerer) LoadtestOption {
	return func(cfg *loadtestConfig) {
		cfg.registerer = reg
	}
}

// RunID labels the run's logs and spans; a random uuid is used when empty
func RunID(s string) LoadtestOption {
	return func(cfg *loadtestConfig) {
		cfg.runID = s
	}
}

func TimeSource(c Clock) LoadtestOption {
	return func(cfg *loadtestConfig) {
		cfg.clock = c
	}
}

func RetrySleeper(s Sleeper) LoadtestOption {
	return func(cfg *loadtestConfig) {
		cfg.sleeper = s
	}
}
