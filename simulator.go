package bacsim

import (
	"context"
	"log/slog"
	"sync"
)

// Simulator ties the pieces together: registry, scheduler, facade and
// metrics, built from one validated configuration. Startup is strictly
// sequential: the registry is fully populated before any scheduler task
// starts, and the facade never sees a half-built registry.
type Simulator struct {
	config    *Config
	registry  *Registry
	scheduler *Scheduler
	facade    *Facade
	metrics   *Metrics
	logger    *slog.Logger
	engine    Engine
}

// New builds a simulator from a validated configuration.
func New(cfg *Config, opts ...Option) (*Simulator, error) {
	options := defaultSimulatorOptions()
	for _, opt := range opts {
		opt(options)
	}

	registry, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics()
	device := cfg.Device.Identity()

	s := &Simulator{
		config:    cfg,
		registry:  registry,
		scheduler: NewScheduler(registry, options.logger, metrics, options.clock, options.seed),
		facade:    NewFacade(device, registry, metrics, options.logger),
		metrics:   metrics,
		logger:    options.logger,
		engine:    options.engine,
	}
	return s, nil
}

// Registry returns the object registry.
func (s *Simulator) Registry() *Registry {
	return s.registry
}

// Facade returns the engine-facing read/write boundary.
func (s *Simulator) Facade() *Facade {
	return s.facade
}

// Scheduler returns the simulation scheduler.
func (s *Simulator) Scheduler() *Scheduler {
	return s.scheduler
}

// Metrics returns the harness metrics.
func (s *Simulator) Metrics() *Metrics {
	return s.metrics
}

// Device returns the simulated device identity.
func (s *Simulator) Device() DeviceIdentity {
	return s.config.Device.Identity()
}

// Run starts every simulation task and, when an engine is attached, serves
// it. It blocks until ctx is cancelled and all tasks have joined. The
// in-memory state is discarded on shutdown; there is nothing to flush.
func (s *Simulator) Run(ctx context.Context) error {
	s.logger.Info("simulator starting",
		slog.String("device", s.config.Device.Name),
		slog.Uint64("instance", uint64(s.config.Device.Instance)),
		slog.String("bind", s.config.Network.Address),
		slog.Int("port", s.config.Network.Port),
		slog.Int("objects", s.registry.Len()),
		slog.Int("simulated", s.scheduler.TaskCount()),
	)

	var wg sync.WaitGroup
	var engineErr error

	if s.engine != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.engine.Serve(ctx, s.facade); err != nil && ctx.Err() == nil {
				engineErr = err
			}
		}()
	}

	err := s.scheduler.Run(ctx)
	wg.Wait()

	s.logger.Info("simulator stopped",
		slog.Int64("ticks_applied", s.metrics.TicksApplied.Value()),
		slog.Int64("tick_failures", s.metrics.TickFailures.Value()),
	)

	if err != nil {
		return err
	}
	return engineErr
}
