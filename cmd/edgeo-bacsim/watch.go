package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgeo/drivers/bacsim"
)

var (
	watchObject   string
	watchDuration time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the simulation and watch present values change",
	Long: `Watch runs the simulation in-process and prints every applied value
change, for one object or for all of them. It is the quickest way to
verify a scenario behaves as configured without attaching a protocol
stack or an external client.

Examples:
  # Watch every simulated object until interrupted
  edgeo-bacsim watch

  # Watch one object by identifier for 30 seconds
  edgeo-bacsim watch --object analog-value:1 --for 30s

  # Watch by object name
  edgeo-bacsim watch --object Temperature`,

	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchObject, "object", "O", "", "Object to watch: type:instance or name (default: all)")
	watchCmd.Flags().DurationVar(&watchDuration, "for", 0, "Stop after this duration (0 = until interrupted)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := bacsim.LoadConfig(viper.GetString("config"), logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sim, err := bacsim.New(cfg, bacsim.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("build simulator: %w", err)
	}

	var target *bacsim.Object
	if watchObject != "" {
		target, err = resolveObject(sim.Registry(), watchObject)
		if err != nil {
			return err
		}
		policy := sim.Registry().Policy(target.ID)
		if !policy.Active() {
			return fmt.Errorf("object %s has no active simulation policy", target.ID)
		}
	}

	sim.Scheduler().SetTickObserver(func(obj *bacsim.Object, v bacsim.Value) {
		if target != nil && obj.ID != target.ID {
			return
		}
		fmt.Printf("[%s] %s %q = %s\n",
			time.Now().Format("15:04:05.000"), obj.ID, obj.Name, v)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if watchDuration > 0 {
		ctx, cancel = context.WithTimeout(ctx, watchDuration)
		defer cancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nStopping watch...")
		cancel()
	}()

	if target != nil {
		fmt.Printf("Watching %s %q\n", target.ID, target.Name)
	} else {
		fmt.Printf("Watching %d simulated object(s)\n", sim.Scheduler().TaskCount())
	}
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	return sim.Run(ctx)
}

// resolveObject accepts either a type:instance identifier or an object
// name, mirroring how objects are addressed elsewhere in the tooling.
func resolveObject(reg *bacsim.Registry, s string) (*bacsim.Object, error) {
	if obj := reg.Get(s); obj != nil {
		return obj, nil
	}
	id, err := parseObjectIdentifier(s)
	if err != nil {
		return nil, fmt.Errorf("no object named %q and %v", s, err)
	}
	obj := reg.GetByID(id.Kind, id.Instance)
	if obj == nil {
		return nil, fmt.Errorf("no object %s in configuration", id)
	}
	return obj, nil
}
