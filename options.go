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
	"log/slog"
	"time"
)

// simulatorOptions holds configuration for the Simulator
type simulatorOptions struct {
	logger *slog.Logger

	// clock drives generator wall-clock time; replaced in tests.
	clock func() time.Time

	// seed for the per-task random sources; 0 means time-derived.
	seed int64

	// engine, when set, is served alongside the scheduler.
	engine Engine
}

// defaultSimulatorOptions returns the default simulator options
func defaultSimulatorOptions() *simulatorOptions {
	return &simulatorOptions{
		logger: slog.Default(),
		clock:  time.Now,
	}
}

// Option is a functional option for configuring the simulator
type Option func(*simulatorOptions)

// WithLogger sets the logger for the simulator
func WithLogger(logger *slog.Logger) Option {
	return func(o *simulatorOptions) {
		o.logger = logger
	}
}

// WithClock sets the wall-clock source used by time-driven generators
func WithClock(clock func() time.Time) Option {
	return func(o *simulatorOptions) {
		o.clock = clock
	}
}

// WithSeed fixes the seed of the per-task random sources
func WithSeed(seed int64) Option {
	return func(o *simulatorOptions) {
		o.seed = seed
	}
}

// WithEngine attaches an external protocol engine; the simulator serves it
// for the lifetime of Run
func WithEngine(engine Engine) Option {
	return func(o *simulatorOptions) {
		o.engine = engine
	}
}
