// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bacsim

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Scheduler runs one timer task per object carrying an active simulation
// policy. Tasks are spawned together under one context and joined on
// shutdown; none outlives the Run call that started it.
type Scheduler struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *Metrics
	clock    func() time.Time
	seed     int64

	// onTick, when set, observes every applied value. Used by the watch
	// command; nil in normal operation.
	onTick func(obj *Object, v Value)

	mu      sync.Mutex
	started bool
}

// NewScheduler creates a scheduler over the registry. The logger, metrics
// and clock come from the simulator's options.
func NewScheduler(registry *Registry, logger *slog.Logger, metrics *Metrics, clock func() time.Time, seed int64) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
		seed:     seed,
	}
}

// SetTickObserver installs a callback invoked after every applied tick.
// Must be called before Run.
func (s *Scheduler) SetTickObserver(fn func(obj *Object, v Value)) {
	s.onTick = fn
}

// TaskCount returns the number of objects that would get a timer task.
func (s *Scheduler) TaskCount() int {
	n := 0
	for _, obj := range s.registry.List() {
		if s.registry.Policy(obj.ID).Active() {
			n++
		}
	}
	return n
}

// Run spawns one goroutine per active policy and blocks until ctx is
// cancelled, then joins every task. The last-applied present values stay in
// the registry; cancellation never rolls anything back. Run can be called
// at most once.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrSchedulerStarted
	}
	s.started = true
	s.mu.Unlock()

	var wg sync.WaitGroup
	seed := s.seed
	if seed == 0 {
		seed = s.clock().UnixNano()
	}

	for i, obj := range s.registry.List() {
		policy := s.registry.Policy(obj.ID)
		if !policy.Active() {
			continue
		}
		wg.Add(1)
		// Each task owns its rand.Rand; rand.Rand is not safe for
		// concurrent use.
		rng := rand.New(rand.NewSource(seed + int64(i)))
		go func(obj *Object, policy Policy, rng *rand.Rand) {
			defer wg.Done()
			s.runTask(ctx, obj, policy, rng)
		}(obj, policy, rng)
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

// runTask is the per-object loop: wait one interval, compute the next
// value from whatever currently sits in the registry, apply it. A failure
// computing or applying a value is logged and the loop continues; only
// cancellation ends the task. Baselining on the registry value means an
// external write is naturally picked up by the next increment, toggle or
// cycle step.
func (s *Scheduler) runTask(ctx context.Context, obj *Object, policy Policy, rng *rand.Rand) {
	s.metrics.ActiveTasks.Inc()
	defer s.metrics.ActiveTasks.Dec()

	s.logger.Info("simulation task started",
		slog.String("object", obj.ID.String()),
		slog.String("name", obj.Name),
		slog.String("generator", policy.Kind.String()),
		slog.Duration("interval", policy.Interval),
	)

	ticker := time.NewTicker(policy.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("simulation task stopped", slog.String("object", obj.ID.String()))
			return

		case <-ticker.C:
			next, err := policy.Next(obj.Domain(), obj.NumberOfStates, obj.PresentValue(), s.clock(), rng)
			if err != nil {
				s.metrics.TickFailures.Inc()
				s.logger.Error("value generation failed",
					slog.String("object", obj.ID.String()),
					slog.String("error", err.Error()),
				)
				continue
			}

			if err := s.registry.SetPresentValue(obj.ID.Kind, obj.ID.Instance, next); err != nil {
				s.metrics.TickFailures.Inc()
				s.logger.Error("value application failed",
					slog.String("object", obj.ID.String()),
					slog.String("error", err.Error()),
				)
				continue
			}

			s.metrics.TicksApplied.Inc()
			s.metrics.RecordActivity()
			s.logger.Debug("present value updated",
				slog.String("object", obj.ID.String()),
				slog.String("value", next.String()),
			)
			if s.onTick != nil {
				s.onTick(obj, next)
			}
		}
	}
}
