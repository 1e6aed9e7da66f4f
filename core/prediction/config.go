package prediction

import (
	"fmt"

	"github.com/kilianp07/metroplan/core/model"
)

// Config holds the multipliers of the demand heuristic.
type Config struct {
	PassengersPerStation int     `json:"passengers_per_station"`
	MorningRush          float64 `json:"morning_rush"`
	EveningRush          float64 `json:"evening_rush"`
	Midday               float64 `json:"midday"`
	Weekend              float64 `json:"weekend"`
	SevereWeather        float64 `json:"severe_weather"`
	SpecialEvent         float64 `json:"special_event"`
	// Jitter is the half-width of the uniform noise factor around 1.
	Jitter float64 `json:"jitter"`
	// Seed makes runs reproducible when non-zero.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the standard heuristic factors.
func DefaultConfig() Config {
	return Config{
		PassengersPerStation: 300,
		MorningRush:          2.5,
		EveningRush:          2.2,
		Midday:               1.3,
		Weekend:              0.6,
		SevereWeather:        1.4,
		SpecialEvent:         1.6,
		Jitter:               0.2,
	}
}

// SetDefaults fills unset factors with the standard values. A zero Jitter is
// kept since it disables the noise.
func (c *Config) SetDefaults() {
	def := DefaultConfig()
	if c.PassengersPerStation == 0 {
		c.PassengersPerStation = def.PassengersPerStation
	}
	if c.MorningRush == 0 {
		c.MorningRush = def.MorningRush
	}
	if c.EveningRush == 0 {
		c.EveningRush = def.EveningRush
	}
	if c.Midday == 0 {
		c.Midday = def.Midday
	}
	if c.Weekend == 0 {
		c.Weekend = def.Weekend
	}
	if c.SevereWeather == 0 {
		c.SevereWeather = def.SevereWeather
	}
	if c.SpecialEvent == 0 {
		c.SpecialEvent = def.SpecialEvent
	}
}

// Validate rejects negative factors and a jitter outside [0,1].
func (c Config) Validate() error {
	if c.PassengersPerStation < 0 {
		return fmt.Errorf("%w: passengers_per_station must be >= 0", model.ErrInvalidConfiguration)
	}
	for name, f := range map[string]float64{
		"morning_rush":   c.MorningRush,
		"evening_rush":   c.EveningRush,
		"midday":         c.Midday,
		"weekend":        c.Weekend,
		"severe_weather": c.SevereWeather,
		"special_event":  c.SpecialEvent,
	} {
		if f < 0 {
			return fmt.Errorf("%w: %s must be >= 0", model.ErrInvalidConfiguration, name)
		}
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		return fmt.Errorf("%w: jitter must be within [0,1]", model.ErrInvalidConfiguration)
	}
	return nil
}

// Source returns the random source implied by the configuration.
func (c Config) Source() RandomSource {
	if c.Seed != 0 {
		return NewSeededSource(c.Seed)
	}
	return DefaultSource()
}
