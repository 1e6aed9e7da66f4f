package model

import "fmt"

// Conditions are the contextual modifiers applied to one planning run.
type Conditions struct {
	Weekday int // 0 (Sunday) to 6 (Saturday)
	Weather int // 1 for severe weather
	Event   int // 1 when a special event takes place
}

// IsWeekend reports whether the weekday is Sunday or Saturday.
func (c Conditions) IsWeekend() bool {
	return c.Weekday == 0 || c.Weekday == 6
}

// SevereWeather reports whether the severe weather flag is set.
func (c Conditions) SevereWeather() bool { return c.Weather == 1 }

// SpecialEvent reports whether the special event flag is set.
func (c Conditions) SpecialEvent() bool { return c.Event == 1 }

// Validate checks the modifier ranges.
func (c Conditions) Validate() error {
	if c.Weekday < 0 || c.Weekday > 6 {
		return fmt.Errorf("%w: weekday %d out of range [0,6]", ErrInvalidConfiguration, c.Weekday)
	}
	if c.Weather != 0 && c.Weather != 1 {
		return fmt.Errorf("%w: weather flag must be 0 or 1", ErrInvalidConfiguration)
	}
	if c.Event != 0 && c.Event != 1 {
		return fmt.Errorf("%w: event flag must be 0 or 1", ErrInvalidConfiguration)
	}
	return nil
}

// String returns a short description used in logs.
func (c Conditions) String() string {
	day := "weekday"
	if c.IsWeekend() {
		day = "weekend"
	}
	weather := "clear"
	if c.SevereWeather() {
		weather = "severe"
	}
	event := "normal"
	if c.SpecialEvent() {
		event = "event"
	}
	return fmt.Sprintf("%s(%d)/%s/%s", day, c.Weekday, weather, event)
}

// ValidateHours checks that hours is non-empty and holds distinct values in [0,23].
func ValidateHours(hours []int) error {
	if len(hours) == 0 {
		return fmt.Errorf("%w: hours must not be empty", ErrInvalidConfiguration)
	}
	var seen [24]bool
	for _, h := range hours {
		if h < 0 || h > 23 {
			return fmt.Errorf("%w: hour %d out of range [0,23]", ErrInvalidConfiguration, h)
		}
		if seen[h] {
			return fmt.Errorf("%w: duplicate hour %d", ErrInvalidConfiguration, h)
		}
		seen[h] = true
	}
	return nil
}
