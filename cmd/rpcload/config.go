package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/josephcopenhaver/rpcload-go/loadtester"
)

type options struct {
	endpoint      string
	calls         int
	threads       int
	retry         int
	auth          string
	timeout       time.Duration
	configFile    string
	logLevel      string
	metricsAddr   string
	trace         bool
	traceEndpoint string
}

func defaultOptions() *options {
	return &options{
		calls:   loadtester.DefaultNumCalls,
		threads: loadtester.DefaultNumWorkers,
		timeout: loadtester.DefaultRequestTimeout,
	}
}

// fileConfig mirrors the flags; pointers distinguish "absent" from zero
type fileConfig struct {
	Endpoint      string         `yaml:"endpoint"`
	Calls         *int           `yaml:"calls"`
	Threads       *int           `yaml:"threads"`
	Retry         *int           `yaml:"retry"`
	Auth          string         `yaml:"auth"`
	Timeout       *time.Duration `yaml:"timeout"`
	LogLevel      string         `yaml:"log_level"`
	MetricsAddr   string         `yaml:"metrics_addr"`
	Trace         *bool          `yaml:"trace"`
	TraceEndpoint string         `yaml:"trace_endpoint"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig

	b, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return fc, nil
}

// applyFileConfig fills in every option the command line did not set explicitly
func (o *options) applyFileConfig(fc fileConfig, flags *pflag.FlagSet) {
	unset := func(name string) bool {
		return !flags.Changed(name)
	}

	if o.endpoint == "" {
		o.endpoint = fc.Endpoint
	}
	if fc.Calls != nil && unset("calls") {
		o.calls = *fc.Calls
	}
	if fc.Threads != nil && unset("threads") {
		o.threads = *fc.Threads
	}
	if fc.Retry != nil && unset("retry") {
		o.retry = *fc.Retry
	}
	if fc.Auth != "" && unset("auth") {
		o.auth = fc.Auth
	}
	if fc.Timeout != nil && unset("timeout") {
		o.timeout = *fc.Timeout
	}
	if fc.LogLevel != "" && unset("log-level") {
		o.logLevel = fc.LogLevel
	}
	if fc.MetricsAddr != "" && unset("metrics-addr") {
		o.metricsAddr = fc.MetricsAddr
	}
	if fc.Trace != nil && unset("trace") {
		o.trace = *fc.Trace
	}
	if fc.TraceEndpoint != "" && unset("trace-endpoint") {
		o.traceEndpoint = fc.TraceEndpoint
	}
}

var (
	errMissingEndpoint = errors.New("endpoint is required")
	errMissingAuth     = errors.New("authorization token is required (-a/--auth)")
	errInvalidCalls    = errors.New("number of calls must be greater than zero")
	errInvalidThreads  = errors.New("number of threads must be greater than zero")
	errInvalidRetry    = errors.New("number of retries must not be negative")
	errInvalidTimeout  = errors.New("timeout must be greater than zero")
)

func (o *options) validate() error {
	if o.endpoint == "" {
		return errMissingEndpoint
	}

	if u, err := url.ParseRequestURI(o.endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: %w", o.endpoint, loadtester.ErrInvalidEndpoint)
	}

	if o.calls <= 0 {
		return errInvalidCalls
	}

	if o.threads <= 0 {
		return errInvalidThreads
	}

	if o.retry < 0 {
		return errInvalidRetry
	}

	if o.auth == "" {
		return errMissingAuth
	}

	if o.timeout <= 0 {
		return errInvalidTimeout
	}

	return nil
}
