// Package planrun triggers planning runs for the network catalog on a cron
// schedule.
package planrun

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/metroplan/config"
	"github.com/kilianp07/metroplan/core/logger"
	"github.com/kilianp07/metroplan/core/model"
	coremon "github.com/kilianp07/metroplan/core/monitoring"
	"github.com/kilianp07/metroplan/infra/network"
)

// Planner runs one planning request.
type Planner interface {
	Plan(ctx context.Context, in model.PlanInput) (model.PlanOutput, error)
}

// Runner plans the catalog network with the conditions of the current day.
type Runner struct {
	cfg     config.JobConfig
	planner Planner
	source  network.Source
	log     logger.Logger
	loc     *time.Location
	now     func() time.Time

	runs atomic.Int64
	last atomic.Pointer[model.PlanOutput]
}

// New validates the job configuration and returns a Runner.
func New(cfg config.JobConfig, p Planner, src network.Source, log logger.Logger) (*Runner, error) {
	if p == nil || src == nil {
		return nil, fmt.Errorf("planrun: planner and network source are required")
	}
	cfg.SetDefaults()
	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("planrun: timezone: %w", err)
		}
		loc = l
	}
	return &Runner{cfg: cfg, planner: p, source: src, log: logger.OrNop(log), loc: loc, now: time.Now}, nil
}

// Conditions returns the planning conditions for t: its weekday in the
// job's location plus the configured weather and event flags.
func (r *Runner) Conditions(t time.Time) model.Conditions {
	return model.Conditions{
		Weekday: int(t.In(r.loc).Weekday()),
		Weather: r.cfg.Weather,
		Event:   r.cfg.Event,
	}
}

// RunOnce loads the network and plans it for today.
func (r *Runner) RunOnce(ctx context.Context) (model.PlanOutput, error) {
	n, err := r.source.Network(ctx)
	if err != nil {
		return model.PlanOutput{}, fmt.Errorf("load network: %w", err)
	}
	cond := r.Conditions(r.now())
	out, err := r.planner.Plan(ctx, n.Input(r.cfg.Hours, cond))
	if err != nil {
		return model.PlanOutput{}, err
	}
	r.runs.Add(1)
	r.last.Store(&out)
	r.log.Infof("scheduled plan %s for %s: %d trains, peak hour %d",
		out.RunID, cond, out.Stats.TotalTrainsUsed, out.Stats.PeakHour)
	return out, nil
}

// Runs returns the number of successful runs.
func (r *Runner) Runs() int64 { return r.runs.Load() }

// Last returns the output of the latest successful run.
func (r *Runner) Last() (model.PlanOutput, bool) {
	p := r.last.Load()
	if p == nil {
		return model.PlanOutput{}, false
	}
	return *p, true
}

// Start registers the job and runs the scheduler until ctx is canceled.
// The returned channel is closed once running jobs have completed.
func (r *Runner) Start(ctx context.Context) (<-chan struct{}, error) {
	c := cron.New(cron.WithLocation(r.loc))
	if _, err := c.AddFunc(r.cfg.Schedule, func() { r.tick(ctx) }); err != nil {
		return nil, fmt.Errorf("planrun: schedule %q: %w", r.cfg.Schedule, err)
	}
	c.Start()
	r.log.Infof("plan job scheduled with %q", r.cfg.Schedule)
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		close(done)
	}()
	return done, nil
}

func (r *Runner) tick(ctx context.Context) {
	defer coremon.Recover()
	if _, err := r.RunOnce(ctx); err != nil {
		r.log.Errorf("scheduled plan failed: %v", err)
		coremon.ReportUnexpected(err, map[string]string{"module": "planrun"})
	}
}
