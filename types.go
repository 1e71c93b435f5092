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

// Package bacsim implements a configuration-driven BACnet device simulation
// harness. It builds a registry of simulated objects from a YAML file and
// mutates their present values on per-object timers. The wire protocol is
// served by an external engine through the Facade boundary; this package
// never encodes a PDU or touches a socket.
package bacsim

import "fmt"

// ObjectKind identifies a BACnet object type. Numeric values follow the
// standard object type enumeration so the external engine can use them
// directly in object identifiers.
type ObjectKind uint16

const (
	KindAnalogInput      ObjectKind = 0
	KindAnalogOutput     ObjectKind = 1
	KindAnalogValue      ObjectKind = 2
	KindBinaryInput      ObjectKind = 3
	KindBinaryOutput     ObjectKind = 4
	KindBinaryValue      ObjectKind = 5
	KindDevice           ObjectKind = 8
	KindMultiStateInput  ObjectKind = 13
	KindMultiStateOutput ObjectKind = 14
	KindMultiStateValue  ObjectKind = 19
)

// ValueDomain classifies the value space of an object kind.
type ValueDomain uint8

const (
	DomainInvalid ValueDomain = iota
	DomainAnalog              // float64 present value
	DomainBinary              // 0 or 1
	DomainMultiState          // 1..numberOfStates
)

func (d ValueDomain) String() string {
	switch d {
	case DomainAnalog:
		return "analog"
	case DomainBinary:
		return "binary"
	case DomainMultiState:
		return "multi-state"
	default:
		return "invalid"
	}
}

// Domain returns the value domain of the object kind, or DomainInvalid for
// kinds the simulator does not instantiate (including the device object).
func (k ObjectKind) Domain() ValueDomain {
	switch k {
	case KindAnalogInput, KindAnalogOutput, KindAnalogValue:
		return DomainAnalog
	case KindBinaryInput, KindBinaryOutput, KindBinaryValue:
		return DomainBinary
	case KindMultiStateInput, KindMultiStateOutput, KindMultiStateValue:
		return DomainMultiState
	default:
		return DomainInvalid
	}
}

func (k ObjectKind) String() string {
	names := map[ObjectKind]string{
		KindAnalogInput:      "analog-input",
		KindAnalogOutput:     "analog-output",
		KindAnalogValue:      "analog-value",
		KindBinaryInput:      "binary-input",
		KindBinaryOutput:     "binary-output",
		KindBinaryValue:      "binary-value",
		KindDevice:           "device",
		KindMultiStateInput:  "multi-state-input",
		KindMultiStateOutput: "multi-state-output",
		KindMultiStateValue:  "multi-state-value",
	}
	if name, ok := names[k]; ok {
		return name
	}
	return fmt.Sprintf("object-kind(%d)", k)
}

// ParseObjectKind parses a kind name or short alias to an ObjectKind. Only
// the nine simulated kinds are accepted; "device" is not a config entry.
func ParseObjectKind(s string) (ObjectKind, bool) {
	kinds := map[string]ObjectKind{
		"analog-input":       KindAnalogInput,
		"ai":                 KindAnalogInput,
		"analog-output":      KindAnalogOutput,
		"ao":                 KindAnalogOutput,
		"analog-value":       KindAnalogValue,
		"av":                 KindAnalogValue,
		"binary-input":       KindBinaryInput,
		"bi":                 KindBinaryInput,
		"binary-output":      KindBinaryOutput,
		"bo":                 KindBinaryOutput,
		"binary-value":       KindBinaryValue,
		"bv":                 KindBinaryValue,
		"multi-state-input":  KindMultiStateInput,
		"msi":                KindMultiStateInput,
		"multi-state-output": KindMultiStateOutput,
		"mso":                KindMultiStateOutput,
		"multi-state-value":  KindMultiStateValue,
		"msv":                KindMultiStateValue,
	}
	k, ok := kinds[s]
	return k, ok
}

// ObjectIdentifier is a BACnet object identifier (kind + instance).
type ObjectIdentifier struct {
	Kind     ObjectKind
	Instance uint32
}

// NewObjectIdentifier creates a new ObjectIdentifier
func NewObjectIdentifier(kind ObjectKind, instance uint32) ObjectIdentifier {
	return ObjectIdentifier{
		Kind:     kind,
		Instance: instance,
	}
}

// Encode encodes the object identifier to a 4-byte value
func (o ObjectIdentifier) Encode() uint32 {
	return (uint32(o.Kind) << 22) | (o.Instance & 0x3FFFFF)
}

// DecodeObjectIdentifier decodes a 4-byte value to an ObjectIdentifier
func DecodeObjectIdentifier(value uint32) ObjectIdentifier {
	return ObjectIdentifier{
		Kind:     ObjectKind((value >> 22) & 0x3FF),
		Instance: value & 0x3FFFFF,
	}
}

func (o ObjectIdentifier) String() string {
	return fmt.Sprintf("%s:%d", o.Kind.String(), o.Instance)
}

// PropertyIdentifier represents BACnet property identifiers
type PropertyIdentifier uint32

const (
	PropertyDescription               PropertyIdentifier = 28
	PropertyModelName                 PropertyIdentifier = 70
	PropertyNumberOfStates            PropertyIdentifier = 74
	PropertyObjectIdentifier          PropertyIdentifier = 75
	PropertyObjectList                PropertyIdentifier = 76
	PropertyObjectName                PropertyIdentifier = 77
	PropertyObjectType                PropertyIdentifier = 79
	PropertyPresentValue              PropertyIdentifier = 85
	PropertyProtocolServicesSupported PropertyIdentifier = 97
	PropertyStateText                 PropertyIdentifier = 110
	PropertyStatusFlags               PropertyIdentifier = 111
	PropertyUnits                     PropertyIdentifier = 117
	PropertyVendorIdentifier          PropertyIdentifier = 120
)

func (p PropertyIdentifier) String() string {
	names := map[PropertyIdentifier]string{
		PropertyDescription:               "description",
		PropertyModelName:                 "model-name",
		PropertyNumberOfStates:            "number-of-states",
		PropertyObjectIdentifier:          "object-identifier",
		PropertyObjectList:                "object-list",
		PropertyObjectName:                "object-name",
		PropertyObjectType:                "object-type",
		PropertyPresentValue:              "present-value",
		PropertyProtocolServicesSupported: "protocol-services-supported",
		PropertyStateText:                 "state-text",
		PropertyStatusFlags:               "status-flags",
		PropertyUnits:                     "units",
		PropertyVendorIdentifier:          "vendor-identifier",
	}
	if name, ok := names[p]; ok {
		return name
	}
	return fmt.Sprintf("property(%d)", p)
}

// ParsePropertyIdentifier parses a property name or short alias.
func ParsePropertyIdentifier(s string) (PropertyIdentifier, bool) {
	props := map[string]PropertyIdentifier{
		"description":                 PropertyDescription,
		"desc":                        PropertyDescription,
		"model-name":                  PropertyModelName,
		"number-of-states":            PropertyNumberOfStates,
		"object-identifier":           PropertyObjectIdentifier,
		"oid":                         PropertyObjectIdentifier,
		"object-list":                 PropertyObjectList,
		"object-name":                 PropertyObjectName,
		"name":                        PropertyObjectName,
		"object-type":                 PropertyObjectType,
		"type":                        PropertyObjectType,
		"present-value":               PropertyPresentValue,
		"pv":                          PropertyPresentValue,
		"protocol-services-supported": PropertyProtocolServicesSupported,
		"state-text":                  PropertyStateText,
		"status-flags":                PropertyStatusFlags,
		"sf":                          PropertyStatusFlags,
		"units":                       PropertyUnits,
		"vendor-identifier":           PropertyVendorIdentifier,
	}
	p, ok := props[s]
	return p, ok
}

// StatusFlags is the standard 4-bit object status vector. The simulation
// loop never mutates it; it is fixed at object construction.
type StatusFlags struct {
	InAlarm      bool
	Fault        bool
	Overridden   bool
	OutOfService bool
}

// Encode encodes the status flags to a byte
func (s StatusFlags) Encode() byte {
	var b byte
	if s.InAlarm {
		b |= 0x08
	}
	if s.Fault {
		b |= 0x04
	}
	if s.Overridden {
		b |= 0x02
	}
	if s.OutOfService {
		b |= 0x01
	}
	return b
}

// DecodeStatusFlags decodes a byte to StatusFlags
func DecodeStatusFlags(b byte) StatusFlags {
	return StatusFlags{
		InAlarm:      b&0x08 != 0,
		Fault:        b&0x04 != 0,
		Overridden:   b&0x02 != 0,
		OutOfService: b&0x01 != 0,
	}
}

func (s StatusFlags) String() string {
	return fmt.Sprintf("{in-alarm:%v, fault:%v, overridden:%v, out-of-service:%v}",
		s.InAlarm, s.Fault, s.Overridden, s.OutOfService)
}

// EngineeringUnits represents BACnet engineering units
type EngineeringUnits uint16

const (
	UnitsVolts                   EngineeringUnits = 5
	UnitsHertz                   EngineeringUnits = 27
	UnitsPercentRelativeHumidity EngineeringUnits = 29
	UnitsLuxes                   EngineeringUnits = 37
	UnitsWatts                   EngineeringUnits = 41
	UnitsKilowatts               EngineeringUnits = 42
	UnitsPascals                 EngineeringUnits = 47
	UnitsKilopascals             EngineeringUnits = 48
	UnitsBars                    EngineeringUnits = 49
	UnitsDegreesCelsius          EngineeringUnits = 62
	UnitsDegreesKelvin           EngineeringUnits = 63
	UnitsDegreesFahrenheit       EngineeringUnits = 64
	UnitsLitersPerSecond         EngineeringUnits = 87
	UnitsNoUnits                 EngineeringUnits = 95
	UnitsPartsPerMillion         EngineeringUnits = 96
	UnitsPercent                 EngineeringUnits = 98
	UnitsAmperes                 EngineeringUnits = 3
)

func (u EngineeringUnits) String() string {
	names := map[EngineeringUnits]string{
		UnitsDegreesCelsius:          "°C",
		UnitsDegreesFahrenheit:       "°F",
		UnitsDegreesKelvin:           "K",
		UnitsPercent:                 "%",
		UnitsPercentRelativeHumidity: "%RH",
		UnitsVolts:                   "V",
		UnitsAmperes:                 "A",
		UnitsWatts:                   "W",
		UnitsKilowatts:               "kW",
		UnitsHertz:                   "Hz",
		UnitsPascals:                 "Pa",
		UnitsKilopascals:             "kPa",
		UnitsBars:                    "bar",
		UnitsLuxes:                   "lx",
		UnitsLitersPerSecond:         "L/s",
		UnitsPartsPerMillion:         "ppm",
		UnitsNoUnits:                 "",
	}
	if name, ok := names[u]; ok {
		return name
	}
	return fmt.Sprintf("units(%d)", u)
}

// ParseEngineeringUnits parses the camel-case unit names used in the
// configuration file (the same spelling the original YAML surface uses).
func ParseEngineeringUnits(s string) (EngineeringUnits, bool) {
	units := map[string]EngineeringUnits{
		"volts":                   UnitsVolts,
		"amperes":                 UnitsAmperes,
		"hertz":                   UnitsHertz,
		"percentRelativeHumidity": UnitsPercentRelativeHumidity,
		"luxes":                   UnitsLuxes,
		"watts":                   UnitsWatts,
		"kilowatts":               UnitsKilowatts,
		"pascals":                 UnitsPascals,
		"kilopascals":             UnitsKilopascals,
		"bars":                    UnitsBars,
		"degreesCelsius":          UnitsDegreesCelsius,
		"degreesKelvin":           UnitsDegreesKelvin,
		"degreesFahrenheit":       UnitsDegreesFahrenheit,
		"litersPerSecond":         UnitsLitersPerSecond,
		"noUnits":                 UnitsNoUnits,
		"partsPerMillion":         UnitsPartsPerMillion,
		"percent":                 UnitsPercent,
	}
	u, ok := units[s]
	return u, ok
}

// ServicesSupported is the protocol-services-supported bitset advertised by
// the device object. Bit positions follow the standard service enumeration.
type ServicesSupported uint64

// Service bit positions the simulator cares about.
const (
	ServiceBitAcknowledgeAlarm     = 0
	ServiceBitCOVNotification      = 1
	ServiceBitReadProperty         = 12
	ServiceBitReadPropertyMultiple = 14
	ServiceBitWriteProperty        = 15
	ServiceBitWhoHas               = 26
	ServiceBitWhoIs                = 27
)

// With returns the bitset with the given service bit set.
func (s ServicesSupported) With(bit uint) ServicesSupported {
	return s | 1<<bit
}

// Has reports whether the given service bit is set.
func (s ServicesSupported) Has(bit uint) bool {
	return s&(1<<bit) != 0
}

// DefaultServicesSupported returns the service bits a simulated device
// advertises: read-property, read-property-multiple, write-property,
// who-is, who-has, acknowledge-alarm and cov-notification.
func DefaultServicesSupported() ServicesSupported {
	var s ServicesSupported
	for _, bit := range []uint{
		ServiceBitAcknowledgeAlarm,
		ServiceBitCOVNotification,
		ServiceBitReadProperty,
		ServiceBitReadPropertyMultiple,
		ServiceBitWriteProperty,
		ServiceBitWhoHas,
		ServiceBitWhoIs,
	} {
		s = s.With(bit)
	}
	return s
}

// DeviceIdentity is the immutable identity of the simulated device.
type DeviceIdentity struct {
	Instance    uint32
	Name        string
	Description string
	VendorID    uint16
	ModelName   string
	Services    ServicesSupported
}

// ObjectID returns the device object identifier.
func (d DeviceIdentity) ObjectID() ObjectIdentifier {
	return NewObjectIdentifier(KindDevice, d.Instance)
}
