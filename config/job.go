package config

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/metroplan/core/model"
)

// JobConfig schedules automatic planning runs.
type JobConfig struct {
	Enabled bool `json:"enabled"`
	// Schedule is a standard five-field cron expression.
	Schedule string `json:"schedule"`
	// Hours overrides the network's planning horizon.
	Hours   []int `json:"hours"`
	Weather int   `json:"weather"`
	Event   int   `json:"event"`
	// Timezone is an IANA location name; empty means local time.
	Timezone string `json:"timezone"`
}

// SetDefaults applies sane defaults.
func (c *JobConfig) SetDefaults() {
	if c.Schedule == "" {
		c.Schedule = "0 5 * * *"
	}
}

// Validate parses the cron expression and the fixed conditions.
func (c JobConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("schedule %q: %w", c.Schedule, err)
	}
	if len(c.Hours) > 0 {
		if err := model.ValidateHours(c.Hours); err != nil {
			return err
		}
	}
	return model.Conditions{Weather: c.Weather, Event: c.Event}.Validate()
}
