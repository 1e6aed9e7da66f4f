// Package scenarios runs YAML-described planning scenarios end to end.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/metroplan/core/model"
)

type Conditions struct {
	Weekday int `yaml:"weekday"`
	Weather int `yaml:"weather"`
	Event   int `yaml:"event"`
}

type Expected struct {
	// Error is "invalid" when the run must fail with ErrInvalidConfiguration.
	Error            string                 `yaml:"error,omitempty"`
	Schedule         map[string]map[int]int `yaml:"schedule,omitempty"`
	Demand           map[string]map[int]int `yaml:"demand,omitempty"`
	TotalTrainsUsed  *int                   `yaml:"total_trains_used,omitempty"`
	PeakHour         *int                   `yaml:"peak_hour,omitempty"`
	UnderProvisioned []int                  `yaml:"under_provisioned,omitempty"`
	Acked            *int                   `yaml:"acked,omitempty"`
}

type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Network     model.Network `yaml:"network"`
	Hours       []int         `yaml:"hours"`
	Conditions  Conditions    `yaml:"conditions"`
	// Random feeds the jitter; empty means a neutral factor of 1.
	Random []float64 `yaml:"random,omitempty"`
	// RejectDepots are depots refusing their schedule when Distribute is set.
	RejectDepots []string `yaml:"reject_depots,omitempty"`
	Distribute   bool     `yaml:"distribute,omitempty"`
	Expected     Expected `yaml:"expected"`
}

func (s Scenario) Input() model.PlanInput {
	return s.Network.Input(s.Hours, model.Conditions{
		Weekday: s.Conditions.Weekday,
		Weather: s.Conditions.Weather,
		Event:   s.Conditions.Event,
	})
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
