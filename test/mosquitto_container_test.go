package test

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/metroplan/core/dispatch"
	"github.com/kilianp07/metroplan/core/events"
	coremetrics "github.com/kilianp07/metroplan/core/metrics"
	"github.com/kilianp07/metroplan/core/model"
	"github.com/kilianp07/metroplan/core/prediction"
	"github.com/kilianp07/metroplan/infra/logger"
	"github.com/kilianp07/metroplan/infra/mqtt"
	"github.com/kilianp07/metroplan/internal/eventbus"
	"github.com/kilianp07/metroplan/test/util"
)

func TestScheduleDistributionOverMosquitto(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto not available: %v", err)
	}
	defer cleanup()

	sim, err := util.StartDepotSimulator(broker, mqtt.DefaultTopicPrefix, "103")
	require.NoError(t, err)
	defer sim.Close()

	client, err := mqtt.NewPahoClient(mqtt.Config{Broker: broker, ClientID: "metroplan-test"})
	require.NoError(t, err)
	defer client.Disconnect()

	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()

	cfg := dispatch.Config{Distribute: true, AckTimeoutSeconds: 3}
	pcfg := prediction.DefaultConfig()
	pcfg.Jitter = 0
	f := prediction.NewRuleForecaster(pcfg, prediction.NewFixedSource(0.5))
	planner, err := dispatch.NewPlanner(cfg, f, dispatch.NewGreedyAllocator(1, logger.NopLogger{}), coremetrics.NopSink{}, bus, logger.NopLogger{})
	require.NoError(t, err)
	planner.SetPublisher(client)

	in := model.DefaultNetwork().Input([]int{8}, model.Conditions{Weekday: 1})
	out, err := planner.Plan(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Stats.TotalTrainsUsed)

	acks := map[string]bool{}
	deadline := time.After(10 * time.Second)
	for len(acks) < 3 {
		select {
		case ev := <-sub:
			if d, ok := ev.(events.DistributionEvent); ok {
				assert.Equal(t, out.RunID, d.RunID)
				acks[d.DepotID] = d.Acknowledged
			}
		case <-deadline:
			t.Fatalf("only %d distribution events received", len(acks))
		}
	}
	assert.Equal(t, map[string]bool{"101": true, "102": true, "103": false}, acks)

	msg, ok := sim.Received("103")
	require.True(t, ok)
	assert.Equal(t, out.RunID, msg.RunID)
	require.Len(t, msg.Inductions, 1)
	assert.Equal(t, 1, msg.Inductions[0].Trains)
}
