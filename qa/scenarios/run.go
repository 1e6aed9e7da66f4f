package scenarios

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/metroplan/core/dispatch"
	"github.com/kilianp07/metroplan/core/model"
	"github.com/kilianp07/metroplan/core/prediction"
	"github.com/kilianp07/metroplan/infra/logger"
	"github.com/kilianp07/metroplan/infra/metrics"
	"github.com/kilianp07/metroplan/infra/mqtt"
	"github.com/kilianp07/metroplan/internal/eventbus"
)

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	random := sc.Random
	if len(random) == 0 {
		random = []float64{0.5}
	}
	forecaster := prediction.NewRuleForecaster(prediction.DefaultConfig(), prediction.NewFixedSource(random...))

	pub := mqtt.NewMockPublisher()
	for _, id := range sc.RejectDepots {
		pub.RejectIDs[id] = true
	}

	bus := eventbus.New()
	defer bus.Close()

	planner, err := dispatch.NewPlanner(
		dispatch.Config{IncludeInsights: true, Distribute: sc.Distribute, AckTimeoutSeconds: 1},
		forecaster,
		dispatch.NewGreedyAllocator(2, logger.NopLogger{}),
		sink,
		bus,
		logger.NopLogger{},
	)
	if err != nil {
		t.Fatalf("planner: %v", err)
	}
	planner.SetPublisher(pub)

	out, err := planner.Plan(context.Background(), sc.Input())
	exp := sc.Expected
	if exp.Error != "" {
		if exp.Error == "invalid" && !errors.Is(err, model.ErrInvalidConfiguration) {
			t.Fatalf("scenario %s expected invalid configuration, got %v", sc.Name, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}

	for depot, hours := range exp.Schedule {
		for h, want := range hours {
			if got := out.Schedule.At(depot, h); got != want {
				t.Errorf("scenario %s schedule[%s][%d] = %d, want %d", sc.Name, depot, h, got, want)
			}
		}
	}
	for line, hours := range exp.Demand {
		for h, want := range hours {
			if got := out.PredictedDemand.At(line, h); got != want {
				t.Errorf("scenario %s demand[%s][%d] = %d, want %d", sc.Name, line, h, got, want)
			}
		}
	}
	if exp.TotalTrainsUsed != nil && out.Stats.TotalTrainsUsed != *exp.TotalTrainsUsed {
		t.Errorf("scenario %s expected %d trains, got %d", sc.Name, *exp.TotalTrainsUsed, out.Stats.TotalTrainsUsed)
	}
	if exp.PeakHour != nil && out.Stats.PeakHour != *exp.PeakHour {
		t.Errorf("scenario %s expected peak hour %d, got %d", sc.Name, *exp.PeakHour, out.Stats.PeakHour)
	}
	if exp.UnderProvisioned != nil {
		got := underProvisioned(out)
		if !equalInts(got, exp.UnderProvisioned) {
			t.Errorf("scenario %s expected under-provisioned hours %v, got %v", sc.Name, exp.UnderProvisioned, got)
		}
	}
	if exp.Acked != nil {
		acked := 0
		for _, d := range sc.Network.Depots {
			if _, ok := pub.Sent(d.ID); ok && !pub.RejectIDs[d.ID] {
				acked++
			}
		}
		if acked != *exp.Acked {
			t.Errorf("scenario %s expected %d acked, got %d", sc.Name, *exp.Acked, acked)
		}
	}
}

func underProvisioned(out model.PlanOutput) []int {
	if out.Insights == nil {
		return nil
	}
	return out.Insights.UnderProvisioned
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
