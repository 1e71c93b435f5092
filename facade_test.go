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

func testFacade(t *testing.T) (*Facade, *Registry, *Metrics) {
	t.Helper()
	cfg := mustParseConfig(t, `
device:
  instance: 1001
  name: Bench Device
  vendor_id: 999
  model: Virtual BACnet Device
`+registryTestConfig)
	reg, err := NewRegistry(cfg)
	require.NoError(t, err)
	metrics := NewMetrics()
	return NewFacade(cfg.Device.Identity(), reg, metrics, discardLogger()), reg, metrics
}

func TestFacade_ObjectList(t *testing.T) {
	f, reg, _ := testFacade(t)

	list := f.ObjectList()
	require.Len(t, list, reg.Len()+1)
	assert.Equal(t, NewObjectIdentifier(KindDevice, 1001), list[0])
	assert.Equal(t, NewObjectIdentifier(KindAnalogValue, 1), list[1])
}

func TestFacade_ReadObjectProperties(t *testing.T) {
	f, _, metrics := testFacade(t)

	v, err := f.ReadProperty(KindAnalogValue, 1, PropertyPresentValue)
	require.NoError(t, err)
	assert.Equal(t, 21.5, v)

	v, err = f.ReadProperty(KindAnalogValue, 1, PropertyObjectName)
	require.NoError(t, err)
	assert.Equal(t, "Temperature", v)

	v, err = f.ReadProperty(KindAnalogValue, 1, PropertyUnits)
	require.NoError(t, err)
	assert.Equal(t, UnitsDegreesCelsius, v)

	v, err = f.ReadProperty(KindAnalogValue, 1, PropertyStatusFlags)
	require.NoError(t, err)
	assert.Equal(t, byte(0), v)

	v, err = f.ReadProperty(KindMultiStateValue, 1, PropertyNumberOfStates)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), v)

	v, err = f.ReadProperty(KindMultiStateValue, 1, PropertyStateText)
	require.NoError(t, err)
	assert.Equal(t, []string{"Off", "Heat", "Cool", "Auto"}, v)

	assert.Equal(t, int64(6), metrics.ReadsServed.Value())
}

func TestFacade_ReadDomainSpecificProperties(t *testing.T) {
	f, _, _ := testFacade(t)

	// units on a binary object, state metadata on an analog object.
	_, err := f.ReadProperty(KindBinaryValue, 1, PropertyUnits)
	assert.ErrorIs(t, err, ErrUnknownProperty)

	_, err = f.ReadProperty(KindAnalogValue, 1, PropertyNumberOfStates)
	assert.ErrorIs(t, err, ErrUnknownProperty)

	_, err = f.ReadProperty(KindAnalogValue, 1, PropertyStateText)
	assert.ErrorIs(t, err, ErrUnknownProperty)
}

func TestFacade_ReadUnknownObject(t *testing.T) {
	f, _, metrics := testFacade(t)

	_, err := f.ReadProperty(KindAnalogValue, 77, PropertyPresentValue)
	assert.ErrorIs(t, err, ErrUnknownObject)
	assert.Equal(t, int64(1), metrics.ReadsFailed.Value())
}

func TestFacade_ReadDeviceProperties(t *testing.T) {
	f, _, _ := testFacade(t)

	v, err := f.ReadProperty(KindDevice, 1001, PropertyObjectName)
	require.NoError(t, err)
	assert.Equal(t, "Bench Device", v)

	v, err = f.ReadProperty(KindDevice, 1001, PropertyVendorIdentifier)
	require.NoError(t, err)
	assert.Equal(t, uint16(999), v)

	v, err = f.ReadProperty(KindDevice, 1001, PropertyModelName)
	require.NoError(t, err)
	assert.Equal(t, "Virtual BACnet Device", v)

	v, err = f.ReadProperty(KindDevice, 1001, PropertyProtocolServicesSupported)
	require.NoError(t, err)
	assert.Equal(t, DefaultServicesSupported(), v)

	v, err = f.ReadProperty(KindDevice, 1001, PropertyObjectList)
	require.NoError(t, err)
	assert.Equal(t, f.ObjectList(), v)

	// Reads against a different device instance miss.
	_, err = f.ReadProperty(KindDevice, 2002, PropertyObjectName)
	assert.ErrorIs(t, err, ErrUnknownObject)
}

func TestFacade_WritePresentValue(t *testing.T) {
	f, reg, metrics := testFacade(t)

	require.NoError(t, f.WriteProperty(KindAnalogValue, 1, PropertyPresentValue, 23.0, nil))
	assert.Equal(t, 23.0, reg.Get("Temperature").PresentValue().Real())

	// Priority is accepted and ignored.
	priority := uint8(8)
	require.NoError(t, f.WriteProperty(KindBinaryValue, 1, PropertyPresentValue, false, &priority))
	assert.Equal(t, uint8(0), reg.Get("Fan").PresentValue().Binary())

	assert.Equal(t, int64(2), metrics.WritesApplied.Value())
	assert.Equal(t, int64(0), metrics.WritesRejected.Value())
}

func TestFacade_WriteNonPresentValueRejected(t *testing.T) {
	f, reg, metrics := testFacade(t)

	err := f.WriteProperty(KindAnalogValue, 1, PropertyObjectName, "Renamed", nil)
	assert.ErrorIs(t, err, ErrReadOnlyProperty)
	assert.Equal(t, "Temperature", reg.Get("Temperature").Name)

	err = f.WriteProperty(KindAnalogValue, 1, PropertyUnits, UnitsPercent, nil)
	assert.ErrorIs(t, err, ErrReadOnlyProperty)

	assert.Equal(t, int64(2), metrics.WritesRejected.Value())
}

func TestFacade_WriteRejectionsPropagate(t *testing.T) {
	f, reg, metrics := testFacade(t)

	err := f.WriteProperty(KindMultiStateValue, 1, PropertyPresentValue, 9, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &WriteError{Kind: WriteOutOfRange}))
	assert.Equal(t, uint32(2), reg.Get("Mode").PresentValue().State())

	err = f.WriteProperty(KindAnalogValue, 55, PropertyPresentValue, 1.0, nil)
	assert.True(t, errors.Is(err, &WriteError{Kind: WriteNotFound}))

	assert.Equal(t, int64(2), metrics.WritesRejected.Value())
}
