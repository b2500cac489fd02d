package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"route-map-client/internal/adapters/optimizer"
	"route-map-client/internal/adapters/seed"
	"route-map-client/internal/config"
	"route-map-client/internal/domain"
	"route-map-client/internal/platform/logging"
	"route-map-client/internal/ports"
	"route-map-client/internal/services"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	baseURL    string
	interval   time.Duration
	maxWait    time.Duration
	verbose    bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "optimize [stops.json | -]",
		Short: "Submit stops for route optimization and print the result.",
		Long: `optimize sends a depot and stops to the route optimization service,
polls the job until it finishes, and prints the optimized visiting order
resolved against the submitted stops.

Without an argument the configured seed file (or the built-in Buenos Aires
stops) is used. "-" reads the input from stdin.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.baseURL != "" {
				cfg.Optimizer.BaseURL = strings.TrimRight(opts.baseURL, "/")
			}
			if opts.interval > 0 {
				cfg.Poll.IntervalMs = ceilUnits(opts.interval, time.Millisecond)
			}
			if opts.maxWait > 0 {
				cfg.Poll.MaxWaitSeconds = ceilUnits(opts.maxWait, time.Second)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			raw, err := readInput(cmd.InOrStdin(), args, cfg.Input.SeedPath)
			if err != nil {
				return err
			}

			logger := zap.NewNop()
			if opts.verbose {
				if logger, err = logging.New(true); err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
			}

			provider, err := optimizer.NewHTTPOptimizer(cfg.Optimizer.BaseURL, cfg.RequestTimeout())
			if err != nil {
				return err
			}
			return runOptimize(cmd.Context(), cfg, provider, raw, logger, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (YAML)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "optimization service base URL (overrides config)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "status poll interval (overrides config)")
	cmd.Flags().DurationVar(&opts.maxWait, "max-wait", 0, "give up after this long (overrides config)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log polling activity to stderr")

	return cmd
}

// ceilUnits converts d to whole units, rounding up so that a positive flag
// never becomes 0 (which the config treats as unset or unbounded).
func ceilUnits(d, unit time.Duration) int {
	return int((d + unit - 1) / unit)
}

func readInput(stdin io.Reader, args []string, seedPath string) ([]byte, error) {
	if len(args) == 0 {
		raw, _, err := seed.LoadInput(seedPath)
		return raw, err
	}
	if args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}

	b, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b, nil
}

func runOptimize(
	ctx context.Context,
	cfg config.Config,
	provider ports.OptimizationService,
	raw []byte,
	logger *zap.Logger,
	out io.Writer,
) error {
	poller := services.NewPoller(provider, services.PollerConfig{
		Interval:             cfg.PollInterval(),
		MaxConsecutiveErrors: cfg.Poll.MaxConsecutiveErrors,
		MaxWait:              cfg.PollMaxWait(),
		BaseContext:          ctx,
		Logger:               logger,
	})
	session := services.NewSession(services.NewSubmitter(provider, logger), poller, logger)
	defer session.Close()

	events, cancel := session.Subscribe()
	defer cancel()

	submitted, err := session.Submit(ctx, raw)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "job %s submitted\n", submitted.JobID)

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for job %s: %w", submitted.JobID, ctx.Err())
		case v, ok := <-events:
			if !ok {
				return errors.New("event stream closed")
			}
			if v.JobID != submitted.JobID || !v.Status.Terminal() {
				continue
			}
			if v.Status == domain.JobStatusFailed {
				return v.Err
			}
			printResult(out, v, session.Route())
			return nil
		}
	}
}

func printResult(out io.Writer, v services.JobView, route domain.RenderedRoute) {
	fmt.Fprintf(out, "status: %s (%d checks)\n", v.Status, v.Checks)
	if s := v.Summary; s != nil {
		fmt.Fprintf(out, "distance: %.2f km\n", s.TotalDistanceKm)
		fmt.Fprintf(out, "travel time: %s\n", s.TravelTime)
		fmt.Fprintf(out, "solver time: %.2fs\n", s.ExecutionTimeSeconds)
	}

	fmt.Fprintln(out, "sequence:")
	for i, addr := range v.Sequence {
		fmt.Fprintf(out, "  %d. %s\n", i+1, addr)
	}

	if len(route.Path) > 0 {
		fmt.Fprintln(out, "path:")
		for _, c := range route.Path {
			fmt.Fprintf(out, "  %.6f,%.6f\n", c.Lat, c.Lng)
		}
	}
}
