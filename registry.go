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

import "fmt"

// Registry owns every simulated object for the process lifetime. It is
// built once from a validated configuration; objects are never added or
// removed afterwards, so the lookup maps are read-only after construction
// and need no lock. Present-value mutation goes through SetPresentValue.
type Registry struct {
	objects []*Object // insertion order, matching the configuration
	byName  map[string]*Object
	byID    map[ObjectIdentifier]*Object

	// Per-object policies, parallel to objects. Kept here so a scheduler
	// can be spawned from the registry alone.
	policies map[ObjectIdentifier]Policy
}

// NewRegistry builds one object per valid object spec in the configuration,
// applying kind-specific defaults that validation has already resolved.
func NewRegistry(cfg *Config) (*Registry, error) {
	r := &Registry{
		byName:   make(map[string]*Object),
		byID:     make(map[ObjectIdentifier]*Object),
		policies: make(map[ObjectIdentifier]Policy),
	}

	for _, spec := range cfg.Objects {
		obj, err := buildObject(spec)
		if err != nil {
			return nil, err
		}
		// Validation rejects duplicates; a collision here means the
		// config was not loaded through LoadConfig.
		if _, exists := r.byID[obj.ID]; exists {
			return nil, fmt.Errorf("bacsim: duplicate object identifier %s", obj.ID)
		}
		if _, exists := r.byName[obj.Name]; exists {
			return nil, fmt.Errorf("bacsim: duplicate object name %q", obj.Name)
		}
		r.objects = append(r.objects, obj)
		r.byName[obj.Name] = obj
		r.byID[obj.ID] = obj
		r.policies[obj.ID] = spec.SimPolicy
	}
	return r, nil
}

func buildObject(spec ObjectSpec) (*Object, error) {
	obj := &Object{
		ID:          NewObjectIdentifier(spec.Kind, spec.Instance),
		Name:        spec.Name,
		Description: spec.Description,
	}

	switch spec.Kind.Domain() {
	case DomainAnalog:
		obj.Units = spec.UnitsCode
		initial := 0.0
		if spec.InitialValue != nil {
			initial = *spec.InitialValue
		}
		obj.setPresentValue(RealValue(initial))

	case DomainBinary:
		var initial uint8
		if spec.InitialValue != nil && *spec.InitialValue == 1 {
			initial = 1
		}
		obj.setPresentValue(BinaryValue(initial))

	case DomainMultiState:
		obj.NumberOfStates = spec.NumberOfStates
		obj.StateText = spec.StateText
		initial := uint32(1)
		if spec.InitialValue != nil {
			initial = uint32(*spec.InitialValue)
		}
		obj.setPresentValue(StateValue(initial))

	default:
		return nil, fmt.Errorf("bacsim: object %q has no value domain", spec.Name)
	}
	return obj, nil
}

// Get returns the object with the given name, or nil.
func (r *Registry) Get(name string) *Object {
	return r.byName[name]
}

// GetByID returns the object with the given kind and instance, or nil.
func (r *Registry) GetByID(kind ObjectKind, instance uint32) *Object {
	return r.byID[NewObjectIdentifier(kind, instance)]
}

// List returns the objects in configuration order. The returned slice is
// shared; callers must not modify it.
func (r *Registry) List() []*Object {
	return r.objects
}

// Len returns the number of registered objects.
func (r *Registry) Len() int {
	return len(r.objects)
}

// Policy returns the simulation policy attached to the object.
func (r *Registry) Policy(id ObjectIdentifier) Policy {
	return r.policies[id]
}

// SetPresentValue validates and applies a present-value write. It is used
// by both the scheduler tasks and the external write path. On rejection
// the object's value is untouched.
func (r *Registry) SetPresentValue(kind ObjectKind, instance uint32, raw any) error {
	id := NewObjectIdentifier(kind, instance)
	obj := r.byID[id]
	if obj == nil {
		return &WriteError{Kind: WriteNotFound, ObjectID: id}
	}

	domain := obj.Domain()
	v, ok := CoerceValue(domain, raw)
	if !ok {
		return &WriteError{
			Kind:     WriteTypeMismatch,
			ObjectID: id,
			Detail:   fmt.Sprintf("%T is not a %s value", raw, domain),
		}
	}

	if domain == DomainMultiState {
		if s := v.State(); s < 1 || s > obj.NumberOfStates {
			return &WriteError{
				Kind:     WriteOutOfRange,
				ObjectID: id,
				Detail:   fmt.Sprintf("state %d outside [1, %d]", s, obj.NumberOfStates),
			}
		}
	}

	obj.setPresentValue(v)
	return nil
}
