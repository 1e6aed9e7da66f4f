package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/metroplan/core/events"
	"github.com/kilianp07/metroplan/core/metrics"
	"github.com/kilianp07/metroplan/core/model"
	"github.com/kilianp07/metroplan/core/prediction"
	"github.com/kilianp07/metroplan/infra/logger"
	"github.com/kilianp07/metroplan/infra/mqtt"
	"github.com/kilianp07/metroplan/internal/eventbus"
)

type recordingSink struct {
	mu        sync.Mutex
	plans     []metrics.PlanRecord
	demand    []metrics.DemandPoint
	induction []metrics.InductionPoint
}

func (s *recordingSink) RecordPlan(r metrics.PlanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = append(s.plans, r)
	return nil
}

func (s *recordingSink) RecordDemand(p []metrics.DemandPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.demand = append(s.demand, p...)
	return nil
}

func (s *recordingSink) RecordInduction(p []metrics.InductionPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.induction = append(s.induction, p...)
	return nil
}

func scenarioInput() model.PlanInput {
	return model.PlanInput{
		Lines:         model.Lines{{ID: "A", Stations: []int{1, 2, 3, 4, 5}}},
		Hours:         []int{8},
		Weekday:       1,
		Depots:        dashboardDepots(),
		TrainCapacity: 1200,
	}
}

func newTestPlanner(t *testing.T, cfg Config, src prediction.RandomSource, sink metrics.MetricsSink, bus eventbus.EventBus) *Planner {
	t.Helper()
	ResetMetrics(prometheus.NewRegistry())
	t.Cleanup(func() { ResetMetrics(nil) })
	f := prediction.NewRuleForecaster(prediction.DefaultConfig(), src)
	p, err := NewPlanner(cfg, f, NewGreedyAllocator(cfg.Workers, logger.NopLogger{}), sink, bus, logger.NopLogger{})
	require.NoError(t, err)
	return p
}

func TestPlanScenarioNeutralJitter(t *testing.T) {
	sink := &recordingSink{}
	p := newTestPlanner(t, Config{}, prediction.NewFixedSource(0.5), sink, nil)
	out, err := p.Plan(context.Background(), scenarioInput())
	require.NoError(t, err)
	assert.Equal(t, 3750, out.PredictedDemand.At("A", 8))
	assert.Equal(t, 4, out.Schedule.HourTotal(8))
	assert.Equal(t, model.Stats{TotalTrainsUsed: 4, PeakHour: 8}, out.Stats)
	assert.NotEmpty(t, out.RunID)
	assert.Nil(t, out.Insights)

	require.Len(t, sink.plans, 1)
	assert.Equal(t, out.RunID, sink.plans[0].RunID)
	assert.Len(t, sink.demand, 1)
	assert.Len(t, sink.induction, 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(planRuns.WithLabelValues("ok")))
	assert.Equal(t, 4.0, testutil.ToFloat64(trainsScheduled.WithLabelValues("101")))
}

func TestPlanScenarioWithinJitter(t *testing.T) {
	p := newTestPlanner(t, Config{}, prediction.NewSeededSource(11), nil, nil)
	for i := 0; i < 50; i++ {
		out, err := p.Plan(context.Background(), scenarioInput())
		require.NoError(t, err)
		total := out.Schedule.HourTotal(8)
		if total < 3 || total > 5 {
			t.Fatalf("schedule %d outside [3,5]", total)
		}
	}
}

func TestPlanInvalidInput(t *testing.T) {
	p := newTestPlanner(t, Config{}, prediction.NewFixedSource(), nil, nil)
	cases := map[string]func(*model.PlanInput){
		"zero capacity":  func(in *model.PlanInput) { in.TrainCapacity = 0 },
		"empty hours":    func(in *model.PlanInput) { in.Hours = nil },
		"hour range":     func(in *model.PlanInput) { in.Hours = []int{25} },
		"duplicate hour": func(in *model.PlanInput) { in.Hours = []int{8, 8} },
		"weekday":        func(in *model.PlanInput) { in.Weekday = 7 },
		"weather":        func(in *model.PlanInput) { in.Weather = 2 },
		"event":          func(in *model.PlanInput) { in.Event = -1 },
		"no lines":       func(in *model.PlanInput) { in.Lines = nil },
		"negative depot": func(in *model.PlanInput) { in.Depots[0].AvailableTrains = -1 },
	}
	for name, mutate := range cases {
		in := scenarioInput()
		mutate(&in)
		out, err := p.Plan(context.Background(), in)
		if !errors.Is(err, model.ErrInvalidConfiguration) {
			t.Fatalf("%s: expected invalid configuration, got %v", name, err)
		}
		assert.Empty(t, out.Schedule, name)
		assert.Empty(t, out.PredictedDemand, name)
	}
	assert.Equal(t, float64(len(cases)), testutil.ToFloat64(planRuns.WithLabelValues("invalid")))
}

func TestPlanUnderProvisionedReportsShortfall(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe()
	p := newTestPlanner(t, Config{IncludeInsights: true}, prediction.NewFixedSource(0.5), nil, bus)
	in := model.PlanInput{
		Lines:         model.Lines{{ID: "A", Stations: make([]int, 16)}},
		Hours:         []int{8},
		Weekday:       1,
		Depots:        model.Depots{{ID: "d", Capacity: 10, AvailableTrains: 10, MaxInductPerHour: 3}},
		TrainCapacity: 1200,
	}
	out, err := p.Plan(context.Background(), in)
	require.NoError(t, err)
	// 16 stations * 300 * 2.5 = 12000 passengers, 10 trains needed
	assert.Equal(t, 3, out.Schedule.At("d", 8))
	require.NotNil(t, out.Insights)
	assert.Equal(t, []int{8}, out.Insights.UnderProvisioned)
	assert.Equal(t, 7, out.Insights.TotalShortfall)
	assert.Equal(t, 1.0, testutil.ToFloat64(shortfallHours))

	var sawShortfall, sawPlan bool
	timeout := time.After(time.Second)
	for !(sawShortfall && sawPlan) {
		select {
		case ev := <-sub:
			switch e := ev.(type) {
			case events.ShortfallEvent:
				sawShortfall = e.Report.Shortfall == 7 && e.RunID == out.RunID
			case events.PlanEvent:
				sawPlan = e.Stats.TotalTrainsUsed == 3
			}
		case <-timeout:
			t.Fatalf("events not received (shortfall=%t plan=%t)", sawShortfall, sawPlan)
		}
	}
}

func TestPlanCanceledContext(t *testing.T) {
	p := newTestPlanner(t, Config{}, prediction.NewFixedSource(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Plan(ctx, scenarioInput())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlanDistributesSchedules(t *testing.T) {
	pub := mqtt.NewMockPublisher()
	pub.RejectIDs["103"] = true
	bus := eventbus.New()
	sub := bus.Subscribe()
	p := newTestPlanner(t, Config{Distribute: true}, prediction.NewFixedSource(0.5), nil, bus)
	p.SetPublisher(pub)

	out, err := p.Plan(context.Background(), scenarioInput())
	require.NoError(t, err)
	for _, id := range []string{"101", "102", "103"} {
		msg, ok := pub.Sent(id)
		require.True(t, ok, id)
		assert.Equal(t, out.RunID, msg.RunID)
		require.Len(t, msg.Inductions, 1)
		assert.Equal(t, out.Schedule.At(id, 8), msg.Inductions[0].Trains)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(mqttSuccess))
	assert.InDelta(t, 2.0/3.0, testutil.ToFloat64(ackRate), 1e-9)

	acked := 0
	timeout := time.After(time.Second)
	for n := 0; n < 3; {
		select {
		case ev := <-sub:
			if e, ok := ev.(events.DistributionEvent); ok {
				n++
				if e.Acknowledged {
					acked++
				}
			}
		case <-timeout:
			t.Fatalf("distribution events not received")
		}
	}
	assert.Equal(t, 2, acked)
}

func TestDistributeWithoutPublisher(t *testing.T) {
	p := newTestPlanner(t, Config{}, prediction.NewFixedSource(), nil, nil)
	_, err := p.Distribute(context.Background(), "r", dashboardDepots(), []int{8}, model.Schedule{})
	assert.Error(t, err)
}

func TestDistributeFailedPublish(t *testing.T) {
	pub := mqtt.NewMockPublisher()
	pub.FailIDs["102"] = true
	p := newTestPlanner(t, Config{}, prediction.NewFixedSource(), nil, nil)
	p.SetPublisher(pub)
	res, err := p.Distribute(context.Background(), "r", dashboardDepots(), []int{8}, model.Schedule{"101": {8: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"102"}, res.Failed())
	assert.Error(t, res.Errors["102"])
	assert.Equal(t, 1.0, testutil.ToFloat64(mqttFailure))
}

func TestNewPlannerRequiresComponents(t *testing.T) {
	_, err := NewPlanner(Config{}, nil, NewGreedyAllocator(1, nil), nil, nil, nil)
	assert.Error(t, err)
}

func TestPlannerConcurrentRuns(t *testing.T) {
	p := newTestPlanner(t, Config{Workers: 4}, prediction.NewSeededSource(5), nil, nil)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Plan(context.Background(), scenarioInput()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent plan: %v", err)
	}
}
