package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/metroplan/core/events"
	coremetrics "github.com/kilianp07/metroplan/core/metrics"
	"github.com/kilianp07/metroplan/infra/logger"
	"github.com/kilianp07/metroplan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// shortfall and distribution events. It stops when the context is canceled
// or the bus is closed. The returned channel is closed once the collector
// has stopped.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	return StartEventCollectorWithLogger(ctx, bus, sink, logger.New("event-collector"))
}

// StartEventCollectorWithLogger is StartEventCollector reporting sink
// failures on log.
func StartEventCollectorWithLogger(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	if log == nil {
		log = logger.NopLogger{}
	}
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev, log)
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event, log logger.Logger) {
	switch e := ev.(type) {
	case events.ShortfallEvent:
		if r, ok := sink.(coremetrics.ShortfallRecorder); ok {
			err := r.RecordShortfall(coremetrics.ShortfallEvent{
				RunID:     e.RunID,
				Hour:      e.Report.Hour,
				Needed:    e.Report.TrainsNeeded,
				Scheduled: e.Report.TrainsScheduled,
				Shortfall: e.Report.Shortfall,
				Time:      time.Now(),
			})
			if err != nil {
				log.Errorf("shortfall metrics error: run %s hour %d: %v", e.RunID, e.Report.Hour, err)
			}
		}
	case events.DistributionEvent:
		if r, ok := sink.(coremetrics.DistributionRecorder); ok {
			errStr := ""
			if e.Err != nil {
				errStr = e.Err.Error()
			}
			err := r.RecordDistribution(coremetrics.DistributionEvent{
				RunID:        e.RunID,
				CommandID:    e.CommandID,
				DepotID:      e.DepotID,
				Acknowledged: e.Acknowledged,
				Latency:      e.Latency,
				Error:        errStr,
				Time:         time.Now(),
			})
			if err != nil {
				log.Errorf("distribution metrics error: run %s depot %s: %v", e.RunID, e.DepotID, err)
			}
		}
	}
}
