package stats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/metroplan/core/model"
)

// Summarize returns the total of all scheduled trains and the hour with the
// highest aggregate demand. Ties resolve to the earliest hour in caller order.
func Summarize(schedule model.Schedule, demand model.Demand, hours []int) (model.Stats, error) {
	if len(hours) == 0 {
		return model.Stats{}, fmt.Errorf("%w: hours must not be empty", model.ErrInvalidConfiguration)
	}
	totals := HourTotals(demand, hours)
	return model.Stats{
		TotalTrainsUsed: schedule.Total(),
		PeakHour:        hours[floats.MaxIdx(totals)],
	}, nil
}

// HourTotals returns the aggregate demand of each hour, in caller order.
func HourTotals(demand model.Demand, hours []int) []float64 {
	totals := make([]float64, len(hours))
	for i, h := range hours {
		totals[i] = float64(demand.HourTotal(h))
	}
	return totals
}
