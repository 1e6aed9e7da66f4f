package model

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration marks structurally invalid planning input. Runs
// failing with it produce no output at all.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Depot stores and dispatches trains into service.
type Depot struct {
	ID               string `json:"-" yaml:"-"`
	Capacity         int    `json:"capacity" yaml:"capacity" validate:"gte=0"`                       // total storage slots
	AvailableTrains  int    `json:"available_trains" yaml:"available_trains" validate:"gte=0"`       // usable this run
	MaxInductPerHour int    `json:"max_induct_per_hour" yaml:"max_induct_per_hour" validate:"gte=0"` // dispatch ceiling per hour
}

// Validate checks that every depot figure is non-negative.
func (d Depot) Validate() error {
	if d.Capacity < 0 || d.AvailableTrains < 0 || d.MaxInductPerHour < 0 {
		return fmt.Errorf("%w: depot %s has negative capacity, available or induction values", ErrInvalidConfiguration, d.ID)
	}
	return nil
}

// HourlyCeiling returns the maximum number of trains the depot can induct in
// any single hour. AvailableTrains is not consumed across hours.
func (d Depot) HourlyCeiling() int {
	return min(d.MaxInductPerHour, d.AvailableTrains)
}

// Depots is an ordered depot set. Its order is the caller's iteration order
// and breaks ties between depots of equal capacity.
type Depots []Depot

// IDs returns the depot identifiers in order.
func (ds Depots) IDs() []string {
	ids := make([]string, len(ds))
	for i, d := range ds {
		ids[i] = d.ID
	}
	return ids
}

// Validate checks each depot and rejects duplicate identifiers.
func (ds Depots) Validate() error {
	seen := make(map[string]struct{}, len(ds))
	for _, d := range ds {
		if _, ok := seen[d.ID]; ok {
			return fmt.Errorf("%w: duplicate depot %s", ErrInvalidConfiguration, d.ID)
		}
		seen[d.ID] = struct{}{}
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TotalCapacity sums the storage capacity of all depots.
func (ds Depots) TotalCapacity() int {
	total := 0
	for _, d := range ds {
		total += d.Capacity
	}
	return total
}
