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
	"fmt"
	"math"
	"math/rand"
	"time"
)

// GeneratorKind selects how a simulated object's present value evolves.
type GeneratorKind uint8

const (
	GenNone      GeneratorKind = iota // value changes only via external writes
	GenRandom                        // uniform draw over the object's value range
	GenSine                          // analog sine wave driven by wall-clock time
	GenIncrement                     // analog sawtooth: prev + step, wraps to min
	GenToggle                        // binary complement
	GenCycle                         // multistate 1..N rotation
)

func (g GeneratorKind) String() string {
	switch g {
	case GenNone:
		return "none"
	case GenRandom:
		return "random"
	case GenSine:
		return "sine"
	case GenIncrement:
		return "increment"
	case GenToggle:
		return "toggle"
	case GenCycle:
		return "cycle"
	default:
		return fmt.Sprintf("generator(%d)", g)
	}
}

// ParseGeneratorKind parses a simulation type name from the configuration.
func ParseGeneratorKind(s string) (GeneratorKind, bool) {
	kinds := map[string]GeneratorKind{
		"none":      GenNone,
		"random":    GenRandom,
		"sine":      GenSine,
		"increment": GenIncrement,
		"toggle":    GenToggle,
		"cycle":     GenCycle,
	}
	g, ok := kinds[s]
	return g, ok
}

// Policy is a resolved simulation policy: the generator kind, the tick
// interval, and all generator parameters (defaults already applied).
type Policy struct {
	Kind     GeneratorKind
	Interval time.Duration

	// random / increment bounds
	Min float64
	Max float64

	// sine parameters
	Amplitude float64
	Offset    float64
	Frequency float64 // Hz against wall-clock seconds

	// increment step
	Step float64
}

// Active reports whether the policy drives periodic mutation.
func (p Policy) Active() bool {
	return p.Kind != GenNone
}

// ValidateFor checks generator/domain compatibility. An incompatible
// pairing is a configuration error caught at startup; the run loop never
// substitutes another generator.
func (p Policy) ValidateFor(d ValueDomain) error {
	var ok bool
	switch p.Kind {
	case GenNone, GenRandom:
		ok = d != DomainInvalid
	case GenSine, GenIncrement:
		ok = d == DomainAnalog
	case GenToggle:
		ok = d == DomainBinary
	case GenCycle:
		ok = d == DomainMultiState
	}
	if !ok {
		return fmt.Errorf("generator %s is not valid for %s objects", p.Kind, d)
	}
	return nil
}

// Next computes the next present value for an object in the given domain.
// It is a pure function of its arguments: prev is the object's current
// value, now drives the sine phase, states is the multistate cardinality,
// and rng supplies randomness for the random generator.
//
// The increment generator emits prev+step even when that overshoots Max;
// the wrap to Min happens on the application after the overshoot, giving a
// sawtooth whose peak may exceed Max by up to one step.
func (p Policy) Next(domain ValueDomain, states uint32, prev Value, now time.Time, rng *rand.Rand) (Value, error) {
	switch domain {
	case DomainAnalog:
		return p.nextAnalog(prev.Real(), now, rng)
	case DomainBinary:
		return p.nextBinary(prev.Binary(), rng)
	case DomainMultiState:
		return p.nextMultiState(prev.State(), states, rng)
	default:
		return Value{}, fmt.Errorf("no value domain for generator %s", p.Kind)
	}
}

func (p Policy) nextAnalog(prev float64, now time.Time, rng *rand.Rand) (Value, error) {
	switch p.Kind {
	case GenRandom:
		return RealValue(p.Min + rng.Float64()*(p.Max-p.Min)), nil
	case GenSine:
		// Wall-clock seconds drive the phase so that two evaluations at
		// the same instant agree regardless of scheduling history.
		t := float64(now.UnixNano()) / float64(time.Second)
		return RealValue(p.Offset + p.Amplitude*math.Sin(2*math.Pi*p.Frequency*t)), nil
	case GenIncrement:
		if prev > p.Max {
			return RealValue(p.Min), nil
		}
		return RealValue(prev + p.Step), nil
	case GenNone:
		return RealValue(prev), nil
	default:
		return Value{}, fmt.Errorf("generator %s cannot produce analog values", p.Kind)
	}
}

func (p Policy) nextBinary(prev uint8, rng *rand.Rand) (Value, error) {
	switch p.Kind {
	case GenRandom:
		return BinaryValue(uint8(rng.Intn(2))), nil
	case GenToggle:
		if prev == 0 {
			return BinaryValue(1), nil
		}
		return BinaryValue(0), nil
	case GenNone:
		return BinaryValue(prev), nil
	default:
		return Value{}, fmt.Errorf("generator %s cannot produce binary values", p.Kind)
	}
}

func (p Policy) nextMultiState(prev uint32, states uint32, rng *rand.Rand) (Value, error) {
	if states == 0 {
		return Value{}, fmt.Errorf("multistate object has zero states")
	}
	switch p.Kind {
	case GenRandom:
		return StateValue(1 + uint32(rng.Intn(int(states)))), nil
	case GenCycle:
		// The modulo also normalizes an out-of-band previous value back
		// into [1, states].
		return StateValue((prev % states) + 1), nil
	case GenNone:
		return StateValue(prev), nil
	default:
		return Value{}, fmt.Errorf("generator %s cannot produce multistate values", p.Kind)
	}
}
