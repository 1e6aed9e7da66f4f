package config

import (
	"github.com/kilianp07/metroplan/core/dispatch"
	"github.com/kilianp07/metroplan/core/prediction"
)

// PlannerConfig groups the allocation and forecasting settings.
type PlannerConfig struct {
	Dispatch   dispatch.Config   `json:"dispatch"`
	Prediction prediction.Config `json:"prediction"`
}

// DefaultPlannerConfig returns the standard heuristic factors.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{Prediction: prediction.DefaultConfig()}
}

func (c *PlannerConfig) SetDefaults() {
	c.Dispatch.SetDefaults()
}

func (c PlannerConfig) Validate() error {
	if err := c.Dispatch.Validate(); err != nil {
		return err
	}
	return c.Prediction.Validate()
}
