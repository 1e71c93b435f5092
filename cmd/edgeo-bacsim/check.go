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

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgeo/drivers/bacsim"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a configuration and list its objects",
	Long: `Check loads and validates a simulation configuration without starting
any simulation task, then prints the device identity and the object table
that a run would create.

Examples:
  # Validate the default config.yaml
  edgeo-bacsim check

  # Validate a scenario file and emit JSON
  edgeo-bacsim check --config hvac.yaml -o json`,

	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := bacsim.LoadConfig(viper.GetString("config"), logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sim, err := bacsim.New(cfg, bacsim.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("build simulator: %w", err)
	}

	f := NewFormatter(viper.GetString("output"))

	if f.format == FormatJSON {
		return outputCheckJSON(f, cfg, sim)
	}

	device := sim.Device()
	f.PrintKeyValue(map[string]interface{}{
		"Device Name": device.Name,
		"Instance":    device.Instance,
		"Vendor ID":   device.VendorID,
		"Model":       device.ModelName,
		"Bind":        fmt.Sprintf("%s:%d", cfg.Network.Address, cfg.Network.Port),
		"Objects":     sim.Registry().Len(),
		"Simulated":   sim.Scheduler().TaskCount(),
	}, []string{"Device Name", "Instance", "Vendor ID", "Model", "Bind", "Objects", "Simulated"})
	f.Println()

	headers := []string{"OBJECT", "NAME", "VALUE", "GENERATOR", "INTERVAL"}
	var rows [][]string
	for _, obj := range sim.Registry().List() {
		policy := sim.Registry().Policy(obj.ID)
		generator, interval := "-", "-"
		if policy.Active() {
			generator = policy.Kind.String()
			interval = policy.Interval.Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			obj.ID.String(),
			obj.Name,
			obj.PresentValue().String(),
			generator,
			interval,
		})
	}
	f.PrintTable(headers, rows)
	return nil
}

func outputCheckJSON(f *Formatter, cfg *bacsim.Config, sim *bacsim.Simulator) error {
	device := sim.Device()
	f.Printf("{\"device\": {\"name\": %q, \"instance\": %d, \"vendor_id\": %d, \"model\": %q},",
		device.Name, device.Instance, device.VendorID, device.ModelName)
	f.Printf(" \"network\": {\"address\": %q, \"port\": %d},", cfg.Network.Address, cfg.Network.Port)
	f.Printf(" \"objects\": [")
	for i, obj := range sim.Registry().List() {
		if i > 0 {
			f.Printf(", ")
		}
		policy := sim.Registry().Policy(obj.ID)
		generator := "none"
		if policy.Active() {
			generator = policy.Kind.String()
		}
		f.Printf("{\"object\": %q, \"name\": %q, \"value\": %q, \"generator\": %q}",
			obj.ID.String(), obj.Name, obj.PresentValue().String(), generator)
	}
	f.Printf("]}\n")
	return nil
}
