// Command lruchurn keeps an LRU cache under sustained write churn so its
// memory and CPU behavior can be observed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bpowers/lruchurn/internal/logging"
	"github.com/bpowers/lruchurn/internal/metrics"
	"github.com/bpowers/lruchurn/internal/workload"
)

type options struct {
	workload    workload.Config
	metricsAddr string
	logLevel    string
	logFormat   string
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	opts := options{workload: workload.DefaultConfig()}
	cfg := &opts.workload

	fs.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "Maximum number of resident cache entries")
	fs.IntVar(&cfg.BurstSize, "burst", cfg.BurstSize, "Number of puts per burst")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Idle time between bursts")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Goroutines sharing each burst (1 = unsynchronized cache)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed (0 = seed from crypto/rand)")
	fs.IntVar(&cfg.MaxBursts, "bursts", cfg.MaxBursts, "Stop after this many bursts (0 = run until interrupted)")
	fs.StringVar(&cfg.Keys, "keys", cfg.Keys, "Key mode: uint64 or readstate")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics, /health and /debug/pprof on this address (empty = disabled)")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&opts.logFormat, "log-format", logging.FormatConsole, "Log format: console or json")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, opts.workload.Validate()
}

func main() {
	os.Exit(realMain(os.Args[1:], os.Stderr))
}

// realMain returns the process exit code so its deferred cleanup runs
// before os.Exit.
func realMain(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("lruchurn", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts, err := parseFlags(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	log, err := logging.NewWithWriter(opts.logLevel, opts.logFormat, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, log); err != nil {
		log.Errorw("lruchurn failed", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, opts options, log *zap.SugaredLogger) error {
	reg := metrics.NewRegistry()
	m := metrics.NewMetrics(reg, "lruchurn")
	m.SetCapacity(opts.workload.Capacity)

	gen, err := workload.New(opts.workload, log, m)
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		srv := metrics.NewServer(opts.metricsAddr, reg)
		errc, err := srv.StartAsync()
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		log.Infow("metrics server listening", "addr", opts.metricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warnw("metrics server shutdown", "error", err)
			}
		}()

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := <-errc; err != nil {
				log.Errorw("metrics server stopped", "error", err)
				cancel()
			}
		}()
		ctx = runCtx
	}

	return gen.Run(ctx)
}
