package model

import "fmt"

// Line is a transit route. Only the number of stations influences demand.
type Line struct {
	ID       string `json:"-" yaml:"-" validate:"required"`
	Stations []int  `json:"stations" yaml:"stations"`
}

// StationCount returns the number of stations served by the line.
func (l Line) StationCount() int { return len(l.Stations) }

// Lines is an ordered set of lines keyed by ID.
type Lines []Line

// IDs returns the line identifiers in order.
func (ls Lines) IDs() []string {
	ids := make([]string, len(ls))
	for i, l := range ls {
		ids[i] = l.ID
	}
	return ids
}

// Validate rejects an empty set and duplicate identifiers.
func (ls Lines) Validate() error {
	if len(ls) == 0 {
		return fmt.Errorf("%w: at least one line is required", ErrInvalidConfiguration)
	}
	seen := make(map[string]struct{}, len(ls))
	for _, l := range ls {
		if _, ok := seen[l.ID]; ok {
			return fmt.Errorf("%w: duplicate line %s", ErrInvalidConfiguration, l.ID)
		}
		seen[l.ID] = struct{}{}
	}
	return nil
}
