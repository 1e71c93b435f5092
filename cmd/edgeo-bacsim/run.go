package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgeo/drivers/bacsim"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the device simulator",
	Long: `Run loads the configuration, builds the object registry, and starts
one simulation task per object with an active policy. It blocks until
SIGINT or SIGTERM, then cancels every task and exits.

A configuration failure aborts startup with exit code 1. Unknown object
types in the configuration are skipped with a warning; every other
configuration problem is fatal.

Examples:
  # Run with the default config.yaml
  edgeo-bacsim run

  # Run a specific scenario with debug output
  edgeo-bacsim run --config hvac.yaml --debug`,

	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := bacsim.LoadConfig(viper.GetString("config"), logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sim, err := bacsim.New(cfg, bacsim.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("build simulator: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	for _, obj := range sim.Registry().List() {
		policy := sim.Registry().Policy(obj.ID)
		generator := "-"
		if policy.Active() {
			generator = policy.Kind.String()
		}
		logger.Info("object ready",
			"object", obj.ID.String(),
			"name", obj.Name,
			"generator", generator,
		)
	}

	if err := sim.Run(ctx); err != nil {
		return fmt.Errorf("run simulator: %w", err)
	}

	if viper.GetBool("debug") {
		snap := sim.Metrics().Snapshot()
		fmt.Fprintf(os.Stderr, "\nMetrics:\n")
		fmt.Fprintf(os.Stderr, "  Uptime:          %v\n", snap.Uptime.Round(timeRounding))
		fmt.Fprintf(os.Stderr, "  Ticks applied:   %d\n", snap.TicksApplied)
		fmt.Fprintf(os.Stderr, "  Tick failures:   %d\n", snap.TickFailures)
		fmt.Fprintf(os.Stderr, "  Reads served:    %d\n", snap.ReadsServed)
		fmt.Fprintf(os.Stderr, "  Writes applied:  %d\n", snap.WritesApplied)
		fmt.Fprintf(os.Stderr, "  Writes rejected: %d\n", snap.WritesRejected)
	}
	return nil
}
