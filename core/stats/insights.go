package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/metroplan/core/model"
)

// HourReports compares, for each hour in caller order, the trains implied by
// demand with the trains actually scheduled.
func HourReports(schedule model.Schedule, demand model.Demand, hours []int, trainCapacity int) []model.HourReport {
	reports := make([]model.HourReport, 0, len(hours))
	for _, h := range hours {
		r := model.HourReport{
			Hour:            h,
			Demand:          demand.HourTotal(h),
			TrainsScheduled: schedule.HourTotal(h),
		}
		r.TrainsNeeded = model.TrainsNeeded(r.Demand, trainCapacity)
		r.Shortfall = max(r.TrainsNeeded-r.TrainsScheduled, 0)
		if seats := r.TrainsScheduled * trainCapacity; seats > 0 {
			r.Efficiency = round3(float64(r.Demand) / float64(seats))
		}
		reports = append(reports, r)
	}
	return reports
}

// Compute derives the insights of a run.
func Compute(in model.PlanInput, out model.PlanOutput) model.Insights {
	ins := model.Insights{
		TotalDepotCapacity: in.Depots.TotalCapacity(),
		Hours:              HourReports(out.Schedule, out.PredictedDemand, in.Hours, in.TrainCapacity),
		UnderProvisioned:   []int{},
	}
	if ins.TotalDepotCapacity > 0 {
		ins.Utilization = round3(float64(out.Stats.TotalTrainsUsed) / float64(ins.TotalDepotCapacity))
	}
	for _, r := range ins.Hours {
		ins.TotalTrainsNeeded += r.TrainsNeeded
		ins.TotalShortfall += r.Shortfall
		if r.UnderProvisioned() {
			ins.UnderProvisioned = append(ins.UnderProvisioned, r.Hour)
		}
	}

	values := out.PredictedDemand.Values()
	if len(values) == 0 {
		return ins
	}
	xs := make([]float64, len(values))
	for i, v := range values {
		xs[i] = float64(v)
	}
	ins.AverageDemand = round3(stat.Mean(xs, nil))
	ins.PeakDemand = int(floats.Max(xs))
	if len(xs) > 1 {
		ins.DemandStdDev = round3(stat.StdDev(xs, nil))
	}
	if ins.AverageDemand > 0 {
		ins.PeakToAverage = round3(float64(ins.PeakDemand) / ins.AverageDemand)
	}
	return ins
}

func round3(v float64) float64 {
	return scalar.Round(v, 3)
}
