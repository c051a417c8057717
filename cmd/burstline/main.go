package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/burstline/burstline/internal/config"
	"github.com/burstline/burstline/internal/dashboard"
	"github.com/burstline/burstline/internal/executor"
	"github.com/burstline/burstline/internal/httpclient"
	"github.com/burstline/burstline/internal/metrics"
	"github.com/burstline/burstline/internal/output"
	"github.com/burstline/burstline/internal/record"
	"github.com/burstline/burstline/internal/runner"
	"github.com/burstline/burstline/internal/sink"
	"github.com/burstline/burstline/internal/tracing"
)

const progressInterval = time.Second

type stderrFailureLogger struct {
	mu sync.Mutex
}

func (l *stderrFailureLogger) LogFailure(rec record.Record) {
	if rec.Success {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if code, ok := rec.Status(); ok {
		fmt.Fprintf(os.Stderr, "[burstline] request %d failed: status %d\n", rec.RequestID, code)
		return
	}
	fmt.Fprintf(os.Stderr, "[burstline] request %d failed: %s\n", rec.RequestID, rec.Error)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := ulid.Make().String()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tracer, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = tracer.Shutdown(shutdownCtx)
	}()

	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		return err
	}
	client := httpclient.NewClient(cfg.Timeout, cfg.Concurrency)
	exec := executor.New(client, builder, tracer)

	logSink, err := sink.Open(cfg.LogFile, cfg.AppendLog)
	if err != nil {
		return err
	}
	defer logSink.Close()

	collector := metrics.NewCollector()

	opts := runner.Options{
		Concurrency:   cfg.Concurrency,
		TotalRequests: cfg.Total,
		RatePerSecond: cfg.Rate,
		Executor:      exec,
		Sink:          logSink,
		Collector:     collector,
	}

	if cfg.LogErrors && !cfg.Dashboard {
		logger := &stderrFailureLogger{}
		opts.OnRecord = logger.LogFailure
	}

	r := runner.New(opts)

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.TestConfig{
			TargetURL:   cfg.TargetURL,
			Method:      cfg.Method,
			Concurrency: cfg.Concurrency,
			Total:       cfg.Total,
			Rate:        cfg.Rate,
			Timeout:     cfg.Timeout,
			LogFile:     cfg.LogFile,
			ConfigFile:  cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
		defer dash.Stop()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(collector, progressInterval, os.Stdout)
		progress.Start()
		defer func() {
			progress.Stop()
			fmt.Fprintln(os.Stdout)
		}()
	}

	result, runErr := r.Run(ctx)

	summary := collector.Summary(result.Duration)
	summary.RunID = runID

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, summary); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, summary)
		fmt.Fprintf(os.Stdout, "\nResults written to %s\n", logSink.Path())
	}

	if runErr != nil {
		return fmt.Errorf("result log failed: %w", runErr)
	}
	if result.Failures > 0 {
		return fmt.Errorf("%d requests failed", result.Failures)
	}
	return nil
}
