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
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPort is the standard BACnet/IP UDP port
const DefaultPort = 47808

// Config is the declarative simulation configuration: one device identity,
// one network endpoint, and an ordered list of object specifications.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Network NetworkConfig `yaml:"network"`
	Objects []ObjectSpec  `yaml:"objects"`
}

// DeviceConfig holds the device section of the configuration file.
type DeviceConfig struct {
	Instance    uint32 `yaml:"instance"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	VendorID    uint16 `yaml:"vendor_id"`
	Model       string `yaml:"model"`
}

// Identity resolves the device section into an immutable DeviceIdentity.
func (d DeviceConfig) Identity() DeviceIdentity {
	return DeviceIdentity{
		Instance:    d.Instance,
		Name:        d.Name,
		Description: d.Description,
		VendorID:    d.VendorID,
		ModelName:   d.Model,
		Services:    DefaultServicesSupported(),
	}
}

// NetworkConfig holds the network section: bind address with subnet mask
// width, and UDP port. It is handed to the external engine verbatim.
type NetworkConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// Prefix returns the bind address as an address/mask prefix.
func (n NetworkConfig) Prefix() (netip.Prefix, error) {
	return netip.ParsePrefix(n.Address)
}

// ObjectSpec is one entry of the objects list.
type ObjectSpec struct {
	Type           string          `yaml:"type"`
	Instance       uint32          `yaml:"instance"`
	Name           string          `yaml:"name"`
	InitialValue   *float64        `yaml:"initial_value"`
	Units          string          `yaml:"units"`
	Description    string          `yaml:"description"`
	NumberOfStates uint32          `yaml:"number_of_states"`
	StateText      []string        `yaml:"state_text"`
	Simulate       bool            `yaml:"simulate"`
	Simulation     *SimulationSpec `yaml:"simulation"`

	// Resolved during validation.
	Kind      ObjectKind       `yaml:"-"`
	UnitsCode EngineeringUnits `yaml:"-"`
	SimPolicy Policy           `yaml:"-"`
}

// SimulationSpec is the per-object simulation block. Pointer fields
// distinguish "omitted" from an explicit zero.
type SimulationSpec struct {
	Type      string   `yaml:"type"`
	Interval  *float64 `yaml:"interval"` // seconds
	Min       *float64 `yaml:"min"`
	Max       *float64 `yaml:"max"`
	Amplitude *float64 `yaml:"amplitude"`
	Offset    *float64 `yaml:"offset"`
	Frequency *float64 `yaml:"frequency"`
	Step      *float64 `yaml:"step"`
}

// Defaults matching the original configuration surface.
const (
	defaultDeviceInstance = 1001
	defaultDeviceName     = "BACnet Simulator"
	defaultDeviceDesc     = "BACnet Device Simulator for Testing"
	defaultVendorID       = 999
	defaultModelName      = "Virtual BACnet Device"
	defaultBindAddress    = "192.168.29.200/24"

	defaultSimInterval  = 5 * time.Second
	defaultNumberStates = 3
)

// LoadConfig reads and validates a simulation configuration. Unknown object
// kinds are logged as warnings and dropped from the object list; every
// other anomaly is a fatal *ConfigError. A nil logger uses slog.Default.
func LoadConfig(path string, logger *slog.Logger) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newConfigError(ConfigNotFound, path, "", err)
		}
		return nil, newConfigError(ConfigNotFound, path, "open", err)
	}
	defer f.Close()

	return readConfig(f, path, logger)
}

func readConfig(r io.Reader, path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newConfigError(ConfigMalformed, path, "read", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, newConfigError(ConfigMalformed, path, "parse yaml", err)
	}

	if err := cfg.normalize(path, logger); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize applies defaults and validates the parsed document in place.
// The objects slice is rewritten with only the valid entries, preserving
// configuration order.
func (c *Config) normalize(path string, logger *slog.Logger) error {
	if c.Device.Instance == 0 {
		c.Device.Instance = defaultDeviceInstance
	}
	if c.Device.Name == "" {
		c.Device.Name = defaultDeviceName
	}
	if c.Device.Description == "" {
		c.Device.Description = defaultDeviceDesc
	}
	if c.Device.VendorID == 0 {
		c.Device.VendorID = defaultVendorID
	}
	if c.Device.Model == "" {
		c.Device.Model = defaultModelName
	}

	if c.Network.Address == "" {
		c.Network.Address = defaultBindAddress
	}
	if _, err := netip.ParseAddr(c.Network.Address); err == nil {
		// Bare address without a mask width; assume a /24 like the
		// original surface does.
		c.Network.Address += "/24"
	}
	if _, err := c.Network.Prefix(); err != nil {
		return newConfigError(ConfigInvalid, path,
			fmt.Sprintf("network address %q", c.Network.Address), err)
	}
	if c.Network.Port == 0 {
		c.Network.Port = DefaultPort
	}
	if c.Network.Port < 1 || c.Network.Port > 65535 {
		return newConfigError(ConfigInvalid, path,
			fmt.Sprintf("network port %d out of range", c.Network.Port), nil)
	}

	seenIDs := make(map[ObjectIdentifier]string)
	seenNames := make(map[string]ObjectIdentifier)
	valid := c.Objects[:0]

	for _, spec := range c.Objects {
		kind, ok := ParseObjectKind(spec.Type)
		if !ok {
			// The one intentional partial-degradation point: skip the
			// entry, keep the rest of the configuration.
			logger.Warn("unknown object type, skipping",
				slog.String("type", spec.Type),
				slog.String("name", spec.Name),
			)
			continue
		}
		spec.Kind = kind

		if spec.Name == "" {
			spec.Name = fmt.Sprintf("%s_%d", spec.Type, spec.Instance)
		}

		id := NewObjectIdentifier(kind, spec.Instance)
		if prev, dup := seenIDs[id]; dup {
			return newConfigError(ConfigInvalid, path,
				fmt.Sprintf("duplicate object identifier %s (%q and %q)", id, prev, spec.Name), nil)
		}
		seenIDs[id] = spec.Name
		if prev, dup := seenNames[spec.Name]; dup {
			return newConfigError(ConfigInvalid, path,
				fmt.Sprintf("duplicate object name %q (%s and %s)", spec.Name, prev, id), nil)
		}
		seenNames[spec.Name] = id

		if err := spec.resolve(path); err != nil {
			return err
		}
		valid = append(valid, spec)
	}
	c.Objects = valid
	return nil
}

// resolve fills in the derived fields of a spec and runs the kind-specific
// validation: units, state table, initial value range, and simulation
// policy compatibility.
func (s *ObjectSpec) resolve(path string) error {
	domain := s.Kind.Domain()

	switch domain {
	case DomainAnalog:
		s.UnitsCode = UnitsDegreesCelsius
		if s.Units != "" {
			u, ok := ParseEngineeringUnits(s.Units)
			if !ok {
				return newConfigError(ConfigInvalid, path,
					fmt.Sprintf("object %q: unknown units %q", s.Name, s.Units), nil)
			}
			s.UnitsCode = u
		}

	case DomainBinary:
		if v := s.InitialValue; v != nil && *v != 0 && *v != 1 {
			return newConfigError(ConfigInvalid, path,
				fmt.Sprintf("object %q: binary initial value %v not 0 or 1", s.Name, *v), nil)
		}

	case DomainMultiState:
		if s.NumberOfStates == 0 {
			s.NumberOfStates = defaultNumberStates
		}
		if len(s.StateText) == 0 {
			s.StateText = make([]string, s.NumberOfStates)
			for i := range s.StateText {
				s.StateText[i] = fmt.Sprintf("State%d", i+1)
			}
		}
		if uint32(len(s.StateText)) != s.NumberOfStates {
			return newConfigError(ConfigInvalid, path,
				fmt.Sprintf("object %q: %d state_text entries for %d states",
					s.Name, len(s.StateText), s.NumberOfStates), nil)
		}
		if v := s.InitialValue; v != nil {
			iv := int64(*v)
			if float64(iv) != *v || iv < 1 || uint32(iv) > s.NumberOfStates {
				return newConfigError(ConfigInvalid, path,
					fmt.Sprintf("object %q: multistate initial value %v outside [1, %d]",
						s.Name, *v, s.NumberOfStates), nil)
			}
		}
	}

	policy, err := s.policy(path)
	if err != nil {
		return err
	}
	s.SimPolicy = policy
	return nil
}

// policy resolves the simulation block to a Policy, applying the documented
// generator defaults, and checks generator/domain compatibility. An object
// without `simulate: true` gets GenNone regardless of any simulation block.
func (s *ObjectSpec) policy(path string) (Policy, error) {
	if !s.Simulate {
		return Policy{Kind: GenNone}, nil
	}

	p := Policy{
		Kind:      GenRandom,
		Interval:  defaultSimInterval,
		Min:       0.0,
		Max:       100.0,
		Amplitude: 50.0,
		Offset:    50.0,
		Frequency: 0.1,
		Step:      1.0,
	}

	if sim := s.Simulation; sim != nil {
		if sim.Type != "" {
			kind, ok := ParseGeneratorKind(sim.Type)
			if !ok {
				return Policy{}, newConfigError(ConfigInvalid, path,
					fmt.Sprintf("object %q: unknown simulation type %q", s.Name, sim.Type), nil)
			}
			p.Kind = kind
		}
		if sim.Interval != nil {
			if *sim.Interval <= 0 {
				return Policy{}, newConfigError(ConfigInvalid, path,
					fmt.Sprintf("object %q: simulation interval %v must be > 0", s.Name, *sim.Interval), nil)
			}
			p.Interval = time.Duration(*sim.Interval * float64(time.Second))
		}
		if sim.Min != nil {
			p.Min = *sim.Min
		}
		if sim.Max != nil {
			p.Max = *sim.Max
		}
		if sim.Amplitude != nil {
			p.Amplitude = *sim.Amplitude
		}
		if sim.Offset != nil {
			p.Offset = *sim.Offset
		}
		if sim.Frequency != nil {
			p.Frequency = *sim.Frequency
		}
		if sim.Step != nil {
			p.Step = *sim.Step
		}
	}

	if p.Min > p.Max {
		return Policy{}, newConfigError(ConfigInvalid, path,
			fmt.Sprintf("object %q: simulation min %v > max %v", s.Name, p.Min, p.Max), nil)
	}

	if err := p.ValidateFor(s.Kind.Domain()); err != nil {
		return Policy{}, newConfigError(ConfigInvalid, path,
			fmt.Sprintf("object %q", s.Name), err)
	}
	return p, nil
}
