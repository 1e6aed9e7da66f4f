package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kilianp07/metroplan/core/events"
	"github.com/kilianp07/metroplan/core/logger"
	"github.com/kilianp07/metroplan/core/metrics"
	"github.com/kilianp07/metroplan/core/model"
	"github.com/kilianp07/metroplan/core/mqtt"
	"github.com/kilianp07/metroplan/core/prediction"
	"github.com/kilianp07/metroplan/core/stats"
	"github.com/kilianp07/metroplan/internal/eventbus"
)

// Planner runs the forecast, the allocation and the summary for one request.
// A Planner holds no per-run state and can serve concurrent runs.
type Planner struct {
	cfg        Config
	forecaster prediction.Forecaster
	allocator  Allocator
	validate   *validator.Validate
	logger     logger.Logger
	metrics    metrics.MetricsSink
	bus        eventbus.EventBus

	mu        sync.RWMutex
	publisher mqtt.Client
}

// NewPlanner creates a planner. sink, bus and log are optional.
func NewPlanner(cfg Config, f prediction.Forecaster, a Allocator, sink metrics.MetricsSink, bus eventbus.EventBus, log logger.Logger) (*Planner, error) {
	if f == nil || a == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewPlanner")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Planner{
		cfg:        cfg,
		forecaster: f,
		allocator:  a,
		validate:   validator.New(),
		logger:     logger.OrNop(log),
		metrics:    sink,
		bus:        bus,
	}, nil
}

// SetPublisher configures the client used to distribute depot schedules.
func (p *Planner) SetPublisher(c mqtt.Client) {
	p.mu.Lock()
	p.publisher = c
	p.mu.Unlock()
}

// Validate checks the request without running it.
func (p *Planner) Validate(in model.PlanInput) error {
	if err := p.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed on %q", model.ErrInvalidConfiguration, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", model.ErrInvalidConfiguration, err)
	}
	if err := model.ValidateHours(in.Hours); err != nil {
		return err
	}
	if err := in.Conditions().Validate(); err != nil {
		return err
	}
	if err := in.Lines.Validate(); err != nil {
		return err
	}
	return in.Depots.Validate()
}

// Plan computes the demand forecast, the depot schedule and the run
// statistics. Invalid input fails with model.ErrInvalidConfiguration and
// yields no output. Under-provisioned hours are reported, never returned as
// errors.
func (p *Planner) Plan(ctx context.Context, in model.PlanInput) (model.PlanOutput, error) {
	start := time.Now()
	out, ins, err := p.run(ctx, in)
	if err != nil {
		planRuns.WithLabelValues(resultLabel(err)).Inc()
		p.logger.Warnf("plan rejected: %v", err)
		return model.PlanOutput{}, err
	}
	dur := time.Since(start)
	planRuns.WithLabelValues("ok").Inc()
	planLatency.Observe(dur.Seconds())

	p.report(in, out, ins, dur)

	p.mu.RLock()
	pub := p.publisher
	p.mu.RUnlock()
	if p.cfg.Distribute && pub != nil {
		res := p.distribute(ctx, pub, out.RunID, in.Depots, in.Hours, out.Schedule)
		if n := len(res.Failed()); n > 0 {
			p.logger.Warnf("plan %s: %d depots did not acknowledge their schedule", out.RunID, n)
		}
	}
	return out, nil
}

func (p *Planner) run(ctx context.Context, in model.PlanInput) (model.PlanOutput, model.Insights, error) {
	if err := ctx.Err(); err != nil {
		return model.PlanOutput{}, model.Insights{}, err
	}
	if err := p.Validate(in); err != nil {
		return model.PlanOutput{}, model.Insights{}, err
	}
	demand, err := p.forecaster.Forecast(in.Lines, in.Hours, in.Conditions())
	if err != nil {
		return model.PlanOutput{}, model.Insights{}, fmt.Errorf("forecast: %w", err)
	}
	schedule, err := p.allocator.Allocate(demand, in.Depots, in.TrainCapacity, in.Hours)
	if err != nil {
		return model.PlanOutput{}, model.Insights{}, fmt.Errorf("allocate: %w", err)
	}
	st, err := stats.Summarize(schedule, demand, in.Hours)
	if err != nil {
		return model.PlanOutput{}, model.Insights{}, fmt.Errorf("summarize: %w", err)
	}
	out := model.PlanOutput{
		RunID:           uuid.NewString(),
		PredictedDemand: demand,
		Schedule:        schedule,
		Stats:           st,
	}
	ins := stats.Compute(in, out)
	if p.cfg.IncludeInsights {
		out.Insights = &ins
	}
	return out, ins, nil
}

// report publishes the run on the metrics sink, the event bus and the logs.
func (p *Planner) report(in model.PlanInput, out model.PlanOutput, ins model.Insights, dur time.Duration) {
	now := time.Now()
	p.logger.Infof("plan %s: %d lines, %d hours, %s, %d trains, peak hour %d",
		out.RunID, len(in.Lines), len(in.Hours), in.Conditions(), out.Stats.TotalTrainsUsed, out.Stats.PeakHour)

	for _, d := range in.Depots {
		trainsScheduled.WithLabelValues(d.ID).Set(float64(out.Schedule[d.ID].Sum()))
	}
	for _, r := range ins.Hours {
		if !r.UnderProvisioned() {
			continue
		}
		shortfallHours.Inc()
		p.logger.Warnf("plan %s: hour %d under-provisioned, %d trains needed, %d scheduled",
			out.RunID, r.Hour, r.TrainsNeeded, r.TrainsScheduled)
		if p.bus != nil {
			p.bus.Publish(events.ShortfallEvent{RunID: out.RunID, Report: r})
		}
	}

	if err := p.metrics.RecordPlan(metrics.PlanRecord{
		RunID:           out.RunID,
		Conditions:      in.Conditions(),
		Lines:           len(in.Lines),
		Depots:          len(in.Depots),
		Hours:           len(in.Hours),
		TotalTrainsUsed: out.Stats.TotalTrainsUsed,
		PeakHour:        out.Stats.PeakHour,
		TotalShortfall:  ins.TotalShortfall,
		Utilization:     ins.Utilization,
		Duration:        dur,
		Time:            now,
	}); err != nil {
		p.logger.Errorf("metrics error: %v", err)
	}
	if dr, ok := p.metrics.(metrics.DemandRecorder); ok {
		pts := make([]metrics.DemandPoint, 0, len(in.Lines)*len(in.Hours))
		for _, l := range in.Lines {
			for _, h := range in.Hours {
				pts = append(pts, metrics.DemandPoint{RunID: out.RunID, LineID: l.ID, Hour: h, Passengers: out.PredictedDemand.At(l.ID, h), Time: now})
			}
		}
		if err := dr.RecordDemand(pts); err != nil {
			p.logger.Errorf("demand metrics error: %v", err)
		}
	}
	if ir, ok := p.metrics.(metrics.InductionRecorder); ok {
		pts := make([]metrics.InductionPoint, 0, len(in.Depots)*len(in.Hours))
		for _, d := range in.Depots {
			for _, h := range in.Hours {
				pts = append(pts, metrics.InductionPoint{RunID: out.RunID, DepotID: d.ID, Hour: h, Trains: out.Schedule.At(d.ID, h), Time: now})
			}
		}
		if err := ir.RecordInduction(pts); err != nil {
			p.logger.Errorf("induction metrics error: %v", err)
		}
	}
	if p.bus != nil {
		p.bus.Publish(events.PlanEvent{
			RunID:      out.RunID,
			Conditions: in.Conditions(),
			Stats:      out.Stats,
			Insights:   ins,
			Duration:   dur,
		})
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidConfiguration):
		return "invalid"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
