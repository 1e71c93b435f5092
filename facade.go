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
)

// Engine is the external protocol stack the harness sits on top of. It owns
// discovery (Who-Is/I-Am), service dispatch and all wire encoding; the
// harness only answers its property callbacks through the Facade. The
// harness never initiates traffic of its own.
type Engine interface {
	// Serve runs the protocol stack until ctx is cancelled, routing every
	// inbound read/write request through the facade.
	Serve(ctx context.Context, facade *Facade) error
}

// Facade is the inbound boundary the external engine calls into. Reads are
// answered from the registry and the device identity; writes reach only
// the present value, everything else is read-only through this boundary.
type Facade struct {
	device   DeviceIdentity
	registry *Registry
	metrics  *Metrics
	logger   *slog.Logger
}

// NewFacade creates a facade over the registry for the given device
// identity.
func NewFacade(device DeviceIdentity, registry *Registry, metrics *Metrics, logger *slog.Logger) *Facade {
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{
		device:   device,
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// Device returns the device identity the facade answers for.
func (f *Facade) Device() DeviceIdentity {
	return f.device
}

// ObjectList returns the device's object list: the device object first,
// then every simulated object in configuration order.
func (f *Facade) ObjectList() []ObjectIdentifier {
	list := make([]ObjectIdentifier, 0, f.registry.Len()+1)
	list = append(list, f.device.ObjectID())
	for _, obj := range f.registry.List() {
		list = append(list, obj.ID)
	}
	return list
}

// ReadProperty answers a read request from the engine. The returned value
// uses plain Go types (string, float64, uint8, uint32, byte for status
// flags, []string for state text) that the engine encodes onto the wire.
func (f *Facade) ReadProperty(kind ObjectKind, instance uint32, property PropertyIdentifier) (any, error) {
	v, err := f.readProperty(kind, instance, property)
	if err != nil {
		f.metrics.ReadsFailed.Inc()
		return nil, err
	}
	f.metrics.ReadsServed.Inc()
	f.metrics.RecordActivity()
	return v, nil
}

func (f *Facade) readProperty(kind ObjectKind, instance uint32, property PropertyIdentifier) (any, error) {
	if kind == KindDevice {
		return f.readDeviceProperty(instance, property)
	}

	obj := f.registry.GetByID(kind, instance)
	if obj == nil {
		return nil, ErrUnknownObject
	}

	switch property {
	case PropertyObjectIdentifier:
		return obj.ID, nil
	case PropertyObjectName:
		return obj.Name, nil
	case PropertyObjectType:
		return obj.ID.Kind, nil
	case PropertyPresentValue:
		return obj.PresentValue().Native(), nil
	case PropertyDescription:
		return obj.Description, nil
	case PropertyStatusFlags:
		return obj.Flags.Encode(), nil
	case PropertyUnits:
		if obj.Domain() != DomainAnalog {
			return nil, ErrUnknownProperty
		}
		return obj.Units, nil
	case PropertyNumberOfStates:
		if obj.Domain() != DomainMultiState {
			return nil, ErrUnknownProperty
		}
		return obj.NumberOfStates, nil
	case PropertyStateText:
		if obj.Domain() != DomainMultiState {
			return nil, ErrUnknownProperty
		}
		return obj.StateText, nil
	default:
		return nil, ErrUnknownProperty
	}
}

func (f *Facade) readDeviceProperty(instance uint32, property PropertyIdentifier) (any, error) {
	if instance != f.device.Instance {
		return nil, ErrUnknownObject
	}

	switch property {
	case PropertyObjectIdentifier:
		return f.device.ObjectID(), nil
	case PropertyObjectName:
		return f.device.Name, nil
	case PropertyObjectType:
		return KindDevice, nil
	case PropertyDescription:
		return f.device.Description, nil
	case PropertyVendorIdentifier:
		return f.device.VendorID, nil
	case PropertyModelName:
		return f.device.ModelName, nil
	case PropertyProtocolServicesSupported:
		return f.device.Services, nil
	case PropertyObjectList:
		return f.ObjectList(), nil
	default:
		return nil, ErrUnknownProperty
	}
}

// WriteProperty applies a write request from the engine. Only the present
// value is writable; the priority, when supplied, is accepted but not used
// for command arbitration (the simulator keeps no priority array).
func (f *Facade) WriteProperty(kind ObjectKind, instance uint32, property PropertyIdentifier, value any, priority *uint8) error {
	if property != PropertyPresentValue {
		f.metrics.WritesRejected.Inc()
		return ErrReadOnlyProperty
	}

	if priority != nil {
		f.logger.Debug("write priority ignored",
			slog.String("object", NewObjectIdentifier(kind, instance).String()),
			slog.Int("priority", int(*priority)),
		)
	}

	if err := f.registry.SetPresentValue(kind, instance, value); err != nil {
		f.metrics.WritesRejected.Inc()
		return err
	}
	f.metrics.WritesApplied.Inc()
	f.metrics.RecordActivity()
	return nil
}
