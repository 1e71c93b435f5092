package bacsim

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Value is a present value tagged with its domain. The zero Value has
// DomainInvalid and is never stored in an object.
type Value struct {
	domain ValueDomain
	bits   uint64
}

// RealValue wraps an analog present value.
func RealValue(f float64) Value {
	return Value{domain: DomainAnalog, bits: math.Float64bits(f)}
}

// BinaryValue wraps a binary present value (0 or 1).
func BinaryValue(b uint8) Value {
	return Value{domain: DomainBinary, bits: uint64(b & 1)}
}

// StateValue wraps a multistate present value (1-based state index).
func StateValue(s uint32) Value {
	return Value{domain: DomainMultiState, bits: uint64(s)}
}

// Domain returns the value's domain tag.
func (v Value) Domain() ValueDomain { return v.domain }

// Real returns the analog interpretation of the value.
func (v Value) Real() float64 { return math.Float64frombits(v.bits) }

// Binary returns the binary interpretation of the value.
func (v Value) Binary() uint8 { return uint8(v.bits) }

// State returns the multistate interpretation of the value.
func (v Value) State() uint32 { return uint32(v.bits) }

// Native returns the value as the Go type the external engine encodes:
// float64 for analog, uint8 for binary, uint32 for multistate.
func (v Value) Native() any {
	switch v.domain {
	case DomainAnalog:
		return v.Real()
	case DomainBinary:
		return v.Binary()
	case DomainMultiState:
		return v.State()
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.domain {
	case DomainAnalog:
		return fmt.Sprintf("%.2f", v.Real())
	case DomainBinary:
		return fmt.Sprintf("%d", v.Binary())
	case DomainMultiState:
		return fmt.Sprintf("%d", v.State())
	default:
		return "invalid"
	}
}

// CoerceValue converts an externally supplied raw value into the given
// domain. It accepts the Go types an engine decode step plausibly hands
// over: floats and integers for analog, bool and 0/1 integers for binary,
// integers (or integral floats) for multistate. The bool result is false
// when the raw value's type does not fit the domain at all; range checking
// is the registry's job.
func CoerceValue(domain ValueDomain, raw any) (Value, bool) {
	switch domain {
	case DomainAnalog:
		switch x := raw.(type) {
		case float64:
			return RealValue(x), true
		case float32:
			return RealValue(float64(x)), true
		case int:
			return RealValue(float64(x)), true
		case int64:
			return RealValue(float64(x)), true
		case uint32:
			return RealValue(float64(x)), true
		case Value:
			if x.domain == DomainAnalog {
				return x, true
			}
		}

	case DomainBinary:
		switch x := raw.(type) {
		case bool:
			if x {
				return BinaryValue(1), true
			}
			return BinaryValue(0), true
		case int:
			if x == 0 || x == 1 {
				return BinaryValue(uint8(x)), true
			}
		case int64:
			if x == 0 || x == 1 {
				return BinaryValue(uint8(x)), true
			}
		case uint8:
			if x <= 1 {
				return BinaryValue(x), true
			}
		case uint32:
			if x <= 1 {
				return BinaryValue(uint8(x)), true
			}
		case Value:
			if x.domain == DomainBinary {
				return x, true
			}
		}

	case DomainMultiState:
		switch x := raw.(type) {
		case int:
			return StateValue(uint32(x)), true
		case int64:
			return StateValue(uint32(x)), true
		case uint32:
			return StateValue(x), true
		case uint8:
			return StateValue(uint32(x)), true
		case float64:
			if x == math.Trunc(x) && x >= 0 {
				return StateValue(uint32(x)), true
			}
		case Value:
			if x.domain == DomainMultiState {
				return x, true
			}
		}
	}
	return Value{}, false
}

// Object is one simulated BACnet object. Everything except the present
// value is immutable after construction; the present value is a single
// atomic word written by exactly one scheduler task (or an external write
// through the registry) and read by any number of concurrent readers.
type Object struct {
	ID          ObjectIdentifier
	Name        string
	Description string

	// Analog only.
	Units EngineeringUnits

	// Multistate only. Invariant: len(StateText) == int(NumberOfStates)
	// and the present value stays within [1, NumberOfStates].
	NumberOfStates uint32
	StateText      []string

	Flags StatusFlags

	pv atomic.Uint64
}

// Domain returns the object's value domain.
func (o *Object) Domain() ValueDomain {
	return o.ID.Kind.Domain()
}

// PresentValue returns an atomic snapshot of the present value.
func (o *Object) PresentValue() Value {
	return Value{domain: o.Domain(), bits: o.pv.Load()}
}

// setPresentValue stores a value already validated for this object.
func (o *Object) setPresentValue(v Value) {
	o.pv.Store(v.bits)
}

func (o *Object) String() string {
	return fmt.Sprintf("%s(%q)=%s", o.ID, o.Name, o.PresentValue())
}
