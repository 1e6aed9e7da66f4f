package model

import "fmt"

// Network is the static description of the metro system: its lines, the
// depots feeding them and the passenger capacity of one train.
type Network struct {
	Lines         Lines  `json:"lines" yaml:"lines"`
	Depots        Depots `json:"depots" yaml:"depots"`
	TrainCapacity int    `json:"train_capacity" yaml:"train_capacity"`
	// Hours is the default planning horizon.
	Hours []int `json:"hours,omitempty" yaml:"hours,omitempty"`
}

// Validate checks lines, depots, capacity and the optional hours.
func (n Network) Validate() error {
	if err := n.Lines.Validate(); err != nil {
		return err
	}
	if err := n.Depots.Validate(); err != nil {
		return err
	}
	if n.TrainCapacity <= 0 {
		return fmt.Errorf("%w: train capacity must be positive, got %d", ErrInvalidConfiguration, n.TrainCapacity)
	}
	if len(n.Hours) > 0 {
		return ValidateHours(n.Hours)
	}
	return nil
}

// Input builds a plan request for the given hours and conditions. The
// network's own hours are used when hours is empty.
func (n Network) Input(hours []int, c Conditions) PlanInput {
	if len(hours) == 0 {
		hours = n.Hours
	}
	return PlanInput{
		Lines:         n.Lines,
		Hours:         append([]int(nil), hours...),
		Weekday:       c.Weekday,
		Weather:       c.Weather,
		Event:         c.Event,
		Depots:        n.Depots,
		TrainCapacity: n.TrainCapacity,
	}
}

// DefaultNetwork returns the three-line demonstration network.
func DefaultNetwork() Network {
	return Network{
		Lines: Lines{
			{ID: "1", Stations: []int{101, 102, 103, 104, 105}},
			{ID: "2", Stations: []int{201, 202, 203, 204}},
			{ID: "3", Stations: []int{301, 302, 303, 304, 305, 306}},
		},
		Depots: Depots{
			{ID: "101", Capacity: 25, AvailableTrains: 18, MaxInductPerHour: 5},
			{ID: "102", Capacity: 20, AvailableTrains: 15, MaxInductPerHour: 4},
			{ID: "103", Capacity: 15, AvailableTrains: 12, MaxInductPerHour: 3},
		},
		TrainCapacity: 1200,
		Hours:         []int{7, 8, 9, 10, 11, 17, 18, 19, 20},
	}
}
