package model

import "sort"

// Series maps an hour of day (0-23) to a non-negative count.
type Series map[int]int

// At returns the value for hour or 0 when absent.
func (s Series) At(hour int) int { return s[hour] }

// Sum adds all values of the series.
func (s Series) Sum() int {
	total := 0
	for _, v := range s {
		total += v
	}
	return total
}

// Demand maps a line ID to its predicted passengers per hour.
type Demand map[string]Series

// At returns the predicted passengers for line at hour, 0 when absent.
func (d Demand) At(line string, hour int) int { return d[line].At(hour) }

// HourTotal sums the predicted passengers of every line at hour.
func (d Demand) HourTotal(hour int) int {
	total := 0
	for _, s := range d {
		total += s.At(hour)
	}
	return total
}

// Values returns every line-hour value in a deterministic order (line ID,
// then hour).
func (d Demand) Values() []int {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []int
	for _, id := range ids {
		hours := make([]int, 0, len(d[id]))
		for h := range d[id] {
			hours = append(hours, h)
		}
		sort.Ints(hours)
		for _, h := range hours {
			out = append(out, d[id][h])
		}
	}
	return out
}

// Schedule maps a depot ID to the number of trains inducted per hour.
type Schedule map[string]Series

// At returns the trains inducted by depot at hour, 0 when absent.
func (s Schedule) At(depot string, hour int) int { return s[depot].At(hour) }

// HourTotal sums the trains scheduled by every depot at hour.
func (s Schedule) HourTotal(hour int) int {
	total := 0
	for _, series := range s {
		total += series.At(hour)
	}
	return total
}

// Total sums every value of the schedule.
func (s Schedule) Total() int {
	total := 0
	for _, series := range s {
		total += series.Sum()
	}
	return total
}

// Stats summarises one planning run.
type Stats struct {
	TotalTrainsUsed int `json:"total_trains_used" yaml:"total_trains_used"`
	PeakHour        int `json:"peak_hour" yaml:"peak_hour"`
}

// PlanInput is the request for one planning run.
type PlanInput struct {
	Lines         Lines  `json:"lines" yaml:"lines" validate:"required,min=1,dive"`
	Hours         []int  `json:"hours" yaml:"hours" validate:"required,min=1,unique,dive,gte=0,lte=23"`
	Weekday       int    `json:"weekday" yaml:"weekday" validate:"gte=0,lte=6"`
	Weather       int    `json:"weather" yaml:"weather" validate:"oneof=0 1"`
	Event         int    `json:"event" yaml:"event" validate:"oneof=0 1"`
	Depots        Depots `json:"depots" yaml:"depots" validate:"dive"`
	TrainCapacity int    `json:"train_capacity" yaml:"train_capacity" validate:"gt=0"`
}

// Conditions returns the contextual modifiers of the input.
func (in PlanInput) Conditions() Conditions {
	return Conditions{Weekday: in.Weekday, Weather: in.Weather, Event: in.Event}
}

// PlanOutput is the response of one planning run.
type PlanOutput struct {
	RunID           string    `json:"run_id,omitempty"`
	PredictedDemand Demand    `json:"predicted_demand"`
	Schedule        Schedule  `json:"schedule"`
	Stats           Stats     `json:"stats"`
	Insights        *Insights `json:"insights,omitempty"`
}

// HourReport compares the demand-implied trains with the trains scheduled at
// one hour. Shortfall > 0 means the hour is under-provisioned.
type HourReport struct {
	Hour            int     `json:"hour"`
	Demand          int     `json:"demand"`
	TrainsNeeded    int     `json:"trains_needed"`
	TrainsScheduled int     `json:"trains_scheduled"`
	Shortfall       int     `json:"shortfall"`
	Efficiency      float64 `json:"efficiency"` // demand / scheduled seat capacity
}

// UnderProvisioned reports whether fewer trains were scheduled than needed.
func (r HourReport) UnderProvisioned() bool { return r.Shortfall > 0 }

// Insights are derived figures computed from a run's output.
type Insights struct {
	Utilization        float64      `json:"utilization"` // trains used / total depot capacity
	AverageDemand      float64      `json:"average_demand"`
	PeakDemand         int          `json:"peak_demand"`
	DemandStdDev       float64      `json:"demand_std_dev"`
	PeakToAverage      float64      `json:"peak_to_average"`
	Hours              []HourReport `json:"hours"`
	UnderProvisioned   []int        `json:"under_provisioned_hours"`
	TotalShortfall     int          `json:"total_shortfall"`
	TotalTrainsNeeded  int          `json:"total_trains_needed"`
	TotalDepotCapacity int          `json:"total_depot_capacity"`
}

// TrainsNeeded returns ceil(passengers / capacity) for a positive capacity.
func TrainsNeeded(passengers, capacity int) int {
	if passengers <= 0 || capacity <= 0 {
		return 0
	}
	return (passengers + capacity - 1) / capacity
}
