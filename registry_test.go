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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryTestConfig = `
objects:
  - type: analog-value
    instance: 1
    name: Temperature
    initial_value: 21.5
    units: degreesCelsius
  - type: analog-input
    instance: 2
    name: Pressure
    units: kilopascals
  - type: binary-value
    instance: 1
    name: Fan
    initial_value: 1
  - type: binary-input
    instance: 2
    name: Door
  - type: multi-state-value
    instance: 1
    name: Mode
    number_of_states: 4
    state_text: ["Off", "Heat", "Cool", "Auto"]
    initial_value: 2
  - type: multi-state-input
    instance: 2
    name: Status
`

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	cfg := mustParseConfig(t, registryTestConfig)
	reg, err := NewRegistry(cfg)
	require.NoError(t, err)
	return reg
}

func TestNewRegistry_BuildsEveryValidSpec(t *testing.T) {
	reg := testRegistry(t)
	assert.Equal(t, 6, reg.Len())

	// Configuration order is preserved.
	names := make([]string, 0, reg.Len())
	for _, obj := range reg.List() {
		names = append(names, obj.Name)
	}
	assert.Equal(t, []string{"Temperature", "Pressure", "Fan", "Door", "Mode", "Status"}, names)
}

func TestNewRegistry_InitialValues(t *testing.T) {
	reg := testRegistry(t)

	temp := reg.Get("Temperature")
	require.NotNil(t, temp)
	assert.Equal(t, 21.5, temp.PresentValue().Real())
	assert.Equal(t, UnitsDegreesCelsius, temp.Units)

	// Analog default is 0, binary default is 0, multistate default is 1.
	assert.Equal(t, 0.0, reg.Get("Pressure").PresentValue().Real())
	assert.Equal(t, uint8(1), reg.Get("Fan").PresentValue().Binary())
	assert.Equal(t, uint8(0), reg.Get("Door").PresentValue().Binary())
	assert.Equal(t, uint32(2), reg.Get("Mode").PresentValue().State())
	assert.Equal(t, uint32(1), reg.Get("Status").PresentValue().State())
}

func TestNewRegistry_MultistateMetadata(t *testing.T) {
	reg := testRegistry(t)

	mode := reg.Get("Mode")
	require.NotNil(t, mode)
	assert.Equal(t, uint32(4), mode.NumberOfStates)
	assert.Equal(t, []string{"Off", "Heat", "Cool", "Auto"}, mode.StateText)

	status := reg.Get("Status")
	require.NotNil(t, status)
	assert.Equal(t, uint32(3), status.NumberOfStates)
	assert.Equal(t, []string{"State1", "State2", "State3"}, status.StateText)
}

func TestRegistry_Lookup(t *testing.T) {
	reg := testRegistry(t)

	byID := reg.GetByID(KindAnalogValue, 1)
	require.NotNil(t, byID)
	assert.Equal(t, "Temperature", byID.Name)

	assert.Nil(t, reg.Get("Nope"))
	assert.Nil(t, reg.GetByID(KindAnalogValue, 99))

	// Same instance, different kind is a different object.
	assert.NotEqual(t, reg.GetByID(KindBinaryValue, 1), byID)
}

func TestRegistry_SetPresentValue(t *testing.T) {
	reg := testRegistry(t)

	require.NoError(t, reg.SetPresentValue(KindAnalogValue, 1, 25.0))
	assert.Equal(t, 25.0, reg.Get("Temperature").PresentValue().Real())

	require.NoError(t, reg.SetPresentValue(KindBinaryValue, 1, false))
	assert.Equal(t, uint8(0), reg.Get("Fan").PresentValue().Binary())

	require.NoError(t, reg.SetPresentValue(KindMultiStateValue, 1, 4))
	assert.Equal(t, uint32(4), reg.Get("Mode").PresentValue().State())
}

func TestRegistry_SetPresentValue_NotFound(t *testing.T) {
	reg := testRegistry(t)

	err := reg.SetPresentValue(KindAnalogOutput, 7, 1.0)
	require.Error(t, err)
	assert.True(t, IsWriteRejected(err))
	assert.True(t, errors.Is(err, &WriteError{Kind: WriteNotFound}))
}

func TestRegistry_SetPresentValue_TypeMismatch(t *testing.T) {
	reg := testRegistry(t)

	err := reg.SetPresentValue(KindAnalogValue, 1, "warm")
	require.Error(t, err)
	assert.True(t, errors.Is(err, &WriteError{Kind: WriteTypeMismatch}))

	// Rejection leaves the value untouched.
	assert.Equal(t, 21.5, reg.Get("Temperature").PresentValue().Real())
}

func TestRegistry_SetPresentValue_MultistateOutOfRange(t *testing.T) {
	reg := testRegistry(t)

	// Mode has 4 states; state 5 and state 0 are both out of range.
	err := reg.SetPresentValue(KindMultiStateValue, 1, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &WriteError{Kind: WriteOutOfRange}))

	err = reg.SetPresentValue(KindMultiStateValue, 1, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &WriteError{Kind: WriteOutOfRange}))

	assert.Equal(t, uint32(2), reg.Get("Mode").PresentValue().State())
}

func TestRegistry_Policy(t *testing.T) {
	cfg := mustParseConfig(t, `
objects:
  - type: analog-value
    instance: 1
    name: Temp
    simulate: true
    simulation: {type: sine, interval: 1}
  - type: analog-value
    instance: 2
    name: Setpoint
`)
	reg, err := NewRegistry(cfg)
	require.NoError(t, err)

	p := reg.Policy(NewObjectIdentifier(KindAnalogValue, 1))
	assert.Equal(t, GenSine, p.Kind)
	assert.True(t, p.Active())

	assert.False(t, reg.Policy(NewObjectIdentifier(KindAnalogValue, 2)).Active())
}
