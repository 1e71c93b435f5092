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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schedulerTestConfig = `
objects:
  - type: analog-value
    instance: 1
    name: Counter
    simulate: true
    simulation: {type: increment, interval: 0.01, min: 0, max: 1000, step: 1}
  - type: analog-value
    instance: 2
    name: Setpoint
    initial_value: 42
`

func newTestScheduler(t *testing.T, doc string) (*Scheduler, *Registry, *Metrics) {
	t.Helper()
	cfg := mustParseConfig(t, doc)
	reg, err := NewRegistry(cfg)
	require.NoError(t, err)
	metrics := NewMetrics()
	return NewScheduler(reg, discardLogger(), metrics, nil, 1), reg, metrics
}

func TestScheduler_TaskCount(t *testing.T) {
	sched, _, _ := newTestScheduler(t, schedulerTestConfig)
	assert.Equal(t, 1, sched.TaskCount())
}

func TestScheduler_TicksMutateOnlySimulatedObjects(t *testing.T) {
	sched, reg, metrics := newTestScheduler(t, schedulerTestConfig)

	ticks := make(chan Value, 16)
	sched.SetTickObserver(func(obj *Object, v Value) {
		select {
		case ticks <- v:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	// Wait for three applied ticks, then stop.
	for i := 0; i < 3; i++ {
		select {
		case <-ticks:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a simulation tick")
		}
	}
	cancel()
	require.NoError(t, <-done)

	counter := reg.Get("Counter").PresentValue().Real()
	assert.GreaterOrEqual(t, counter, 3.0)

	// The unsimulated object is untouched.
	assert.Equal(t, 42.0, reg.Get("Setpoint").PresentValue().Real())

	assert.GreaterOrEqual(t, metrics.TicksApplied.Value(), int64(3))
	assert.Equal(t, int64(0), metrics.TickFailures.Value())
	assert.Equal(t, int64(0), metrics.ActiveTasks.Value())
}

func TestScheduler_CancellationKeepsLastValue(t *testing.T) {
	sched, reg, _ := newTestScheduler(t, schedulerTestConfig)

	ticks := make(chan struct{}, 16)
	sched.SetTickObserver(func(*Object, Value) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	select {
	case <-ticks:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a simulation tick")
	}
	cancel()
	require.NoError(t, <-done)

	// Shutdown never rolls values back to their initial state.
	after := reg.Get("Counter").PresentValue().Real()
	assert.Greater(t, after, 0.0)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, reg.Get("Counter").PresentValue().Real())
}

func TestScheduler_RunTwiceFails(t *testing.T) {
	sched, _, _ := newTestScheduler(t, schedulerTestConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, sched.Run(ctx))

	assert.ErrorIs(t, sched.Run(ctx), ErrSchedulerStarted)
}

func TestScheduler_ExternalWriteBecomesNextBaseline(t *testing.T) {
	sched, reg, _ := newTestScheduler(t, `
objects:
  - type: multi-state-value
    instance: 1
    name: Mode
    number_of_states: 3
    simulate: true
    simulation: {type: cycle, interval: 0.01}
`)

	type tick struct {
		v Value
	}
	ticks := make(chan tick, 16)
	sched.SetTickObserver(func(obj *Object, v Value) {
		select {
		case ticks <- tick{v}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	select {
	case <-ticks:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a simulation tick")
	}

	// An external write lands between ticks and the cycle continues from
	// the written state.
	require.NoError(t, reg.SetPresentValue(KindMultiStateValue, 1, 3))
	cancel()
	require.NoError(t, <-done)

	s := reg.Get("Mode").PresentValue().State()
	assert.GreaterOrEqual(t, s, uint32(1))
	assert.LessOrEqual(t, s, uint32(3))
}

func TestScheduler_NoActivePoliciesJustBlocks(t *testing.T) {
	sched, _, metrics := newTestScheduler(t, `
objects:
  - type: analog-value
    instance: 1
    name: Static
`)
	assert.Equal(t, 0, sched.TaskCount())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, sched.Run(ctx))
	assert.Equal(t, int64(0), metrics.TicksApplied.Value())
}
