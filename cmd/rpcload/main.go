// Command rpcload fires a fixed number of header.SyncState JSON-RPC calls at
// one endpoint over a bounded pool of workers and prints a latency summary.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/josephcopenhaver/rpcload-go/internal/tracing"
	"github.com/josephcopenhaver/rpcload-go/loadtester"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := defaultOptions()

	cmd := &cobra.Command{
		Use:          "rpcload [flags] endpoint",
		Short:        "Load test a JSON-RPC endpoint with header.SyncState calls",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.endpoint = args[0]
			}

			if opts.configFile != "" {
				fc, err := loadFileConfig(opts.configFile)
				if err != nil {
					return err
				}
				opts.applyFileConfig(fc, cmd.Flags())
			}

			if err := opts.validate(); err != nil {
				return err
			}

			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.calls, "calls", "c", opts.calls, "number of calls to make")
	f.IntVarP(&opts.threads, "threads", "t", opts.threads, "number of concurrent workers")
	f.IntVarP(&opts.retry, "retry", "r", opts.retry, "number of times to retry a call after a transport failure")
	f.StringVarP(&opts.auth, "auth", "a", opts.auth, "bearer token for the API")
	f.DurationVar(&opts.timeout, "timeout", opts.timeout, "per request timeout")
	f.StringVar(&opts.configFile, "config", "", "yaml file supplying defaults for any flag")
	f.StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address during the run")
	f.BoolVar(&opts.trace, "trace", false, "export an OpenTelemetry span per attempt")
	f.StringVar(&opts.traceEndpoint, "trace-endpoint", "", "OTLP/HTTP collector endpoint; spans go to stderr when empty")

	return cmd
}

// run always prints the summary and returns nil once the loadtest has started;
// failed calls are reported through the counts only
func run(cmd *cobra.Command, opts *options) error {
	if opts.logLevel != "" {
		level, err := zapcore.ParseLevel(opts.logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}

		if err := loadtester.SetLogLevel(level); err != nil {
			return fmt.Errorf("failed to set log level: %w", err)
		}
	}
	logger := loadtester.Logger

	ctx, cancel := loadtester.RootContext(logger)
	defer cancel()

	var shutdowns []func(context.Context) error
	defer func() {
		var err error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			err = multierr.Append(err, shutdowns[i](context.Background()))
		}

		if err != nil {
			logger.Warnw(
				"shutdown incomplete",
				"error", err,
			)
		}
	}()

	{
		shutdown, err := tracing.Init(ctx, tracing.Config{
			Enabled:  opts.trace,
			Service:  "rpcload",
			Endpoint: opts.traceEndpoint,
			Writer:   cmd.ErrOrStderr(),
		}, logger)
		if err != nil {
			return err
		}
		shutdowns = append(shutdowns, shutdown)
	}

	reg := prometheus.NewRegistry()
	if opts.metricsAddr != "" {
		shutdown, err := startMetricsServer(opts.metricsAddr, newMetricsRouter(reg), logger)
		if err != nil {
			return err
		}
		shutdowns = append(shutdowns, shutdown)
	}

	client, err := loadtester.NewHTTPClient(opts.threads, opts.timeout)
	if err != nil {
		return err
	}
	// close pooled connections on the way out
	defer client.CloseIdleConnections()

	sender, err := loadtester.NewHTTPSender(client, opts.endpoint, opts.auth)
	if err != nil {
		return err
	}

	lt, err := loadtester.NewLoadtest(
		loadtester.NewRPCCaller(sender),
		loadtester.NumCalls(opts.calls),
		loadtester.NumWorkers(opts.threads),
		loadtester.RetryCount(opts.retry),
		loadtester.Progress(loadtester.NewConsoleProgress(cmd.OutOrStdout())),
		loadtester.RunLogger(logger.With("endpoint", sender.Endpoint())),
		loadtester.MetricsRegisterer(reg),
	)
	if err != nil {
		return err
	}

	result, err := lt.Run(ctx)
	if err != nil {
		return err
	}

	if err := result.WriteReport(cmd.OutOrStdout()); err != nil {
		logger.Warnw(
			"failed to write report",
			"error", err,
		)
	}

	return nil
}
