package metrics

import (
	"time"

	"github.com/kilianp07/metroplan/core/model"
)

// PlanRecord summarises one planning run.
type PlanRecord struct {
	RunID           string
	Conditions      model.Conditions
	Lines           int
	Depots          int
	Hours           int
	TotalTrainsUsed int
	PeakHour        int
	TotalShortfall  int
	Utilization     float64
	Duration        time.Duration
	Time            time.Time
}

// MetricsSink records planning runs for observability purposes.
type MetricsSink interface {
	RecordPlan(rec PlanRecord) error
}

// DemandPoint is the predicted passengers of one line at one hour.
type DemandPoint struct {
	RunID      string
	LineID     string
	Hour       int
	Passengers int
	Time       time.Time
}

// DemandRecorder records the forecast series of a run.
type DemandRecorder interface {
	RecordDemand(points []DemandPoint) error
}

// InductionPoint is the number of trains one depot inducts at one hour.
type InductionPoint struct {
	RunID   string
	DepotID string
	Hour    int
	Trains  int
	Time    time.Time
}

// InductionRecorder records the schedule of a run.
type InductionRecorder interface {
	RecordInduction(points []InductionPoint) error
}

// ShortfallEvent describes an under-provisioned hour.
type ShortfallEvent struct {
	RunID     string
	Hour      int
	Needed    int
	Scheduled int
	Shortfall int
	Time      time.Time
}

// ShortfallRecorder records under-provisioned hours.
type ShortfallRecorder interface {
	RecordShortfall(ev ShortfallEvent) error
}

// DistributionEvent captures the delivery of a schedule to one depot.
type DistributionEvent struct {
	RunID        string
	CommandID    string
	DepotID      string
	Acknowledged bool
	Latency      time.Duration
	Error        string
	Time         time.Time
}

// DistributionRecorder records schedule deliveries.
type DistributionRecorder interface {
	RecordDistribution(ev DistributionEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanRecord) error                { return nil }
func (NopSink) RecordDemand([]DemandPoint) error           { return nil }
func (NopSink) RecordInduction([]InductionPoint) error     { return nil }
func (NopSink) RecordShortfall(ShortfallEvent) error       { return nil }
func (NopSink) RecordDistribution(DistributionEvent) error { return nil }
