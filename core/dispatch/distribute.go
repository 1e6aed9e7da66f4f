package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/metroplan/core/events"
	"github.com/kilianp07/metroplan/core/model"
	"github.com/kilianp07/metroplan/core/mqtt"
)

// DistributionResult reports the delivery of a schedule to each depot.
type DistributionResult struct {
	CommandIDs   map[string]string
	Acknowledged map[string]bool
	Errors       map[string]error
}

// Failed returns the depots whose schedule was not acknowledged.
func (r DistributionResult) Failed() []string {
	var ids []string
	for id, ok := range r.Acknowledged {
		if !ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Distribute publishes each depot's hourly inductions and waits for the
// acknowledgments concurrently.
func (p *Planner) Distribute(ctx context.Context, runID string, depots model.Depots, hours []int, schedule model.Schedule) (DistributionResult, error) {
	p.mu.RLock()
	pub := p.publisher
	p.mu.RUnlock()
	if pub == nil {
		return DistributionResult{}, fmt.Errorf("dispatch: no schedule publisher configured")
	}
	return p.distribute(ctx, pub, runID, depots, hours, schedule), nil
}

func (p *Planner) distribute(ctx context.Context, pub mqtt.Client, runID string, depots model.Depots, hours []int, schedule model.Schedule) DistributionResult {
	res := DistributionResult{
		CommandIDs:   make(map[string]string, len(depots)),
		Acknowledged: make(map[string]bool, len(depots)),
		Errors:       make(map[string]error),
	}
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ackCount int
	)
	update := func(depotID, cmdID string, ack bool, err error, dur time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			res.Errors[depotID] = err
		}
		if cmdID != "" {
			res.CommandIDs[depotID] = cmdID
		}
		res.Acknowledged[depotID] = err == nil && ack
		if err == nil && ack {
			ackCount++
		}
		if p.bus != nil {
			p.bus.Publish(events.DistributionEvent{
				RunID:        runID,
				DepotID:      depotID,
				CommandID:    cmdID,
				Acknowledged: err == nil && ack,
				Err:          err,
				Latency:      dur,
			})
		}
	}
	for _, d := range depots {
		msg := mqtt.ScheduleMessage{
			RunID:      runID,
			DepotID:    d.ID,
			Inductions: make([]mqtt.Induction, 0, len(hours)),
			IssuedAt:   time.Now().UTC(),
		}
		for _, h := range hours {
			msg.Inductions = append(msg.Inductions, mqtt.Induction{Hour: h, Trains: schedule.At(d.ID, h)})
		}
		wg.Add(1)
		go func(m mqtt.ScheduleMessage) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				update(m.DepotID, "", false, err, 0)
				return
			}
			cmdID, ack, dur, err := p.sendAndWait(pub, m)
			update(m.DepotID, cmdID, ack, err, dur)
		}(msg)
	}
	wg.Wait()
	if total := len(depots); total > 0 {
		ackRate.Set(float64(ackCount) / float64(total))
	}
	return res
}

// sendAndWait publishes the schedule and waits for the acknowledgment while
// measuring the latency.
func (p *Planner) sendAndWait(pub mqtt.Client, msg mqtt.ScheduleMessage) (string, bool, time.Duration, error) {
	start := time.Now()
	cmdID, err := pub.PublishSchedule(msg)
	if err != nil {
		mqttFailure.Inc()
		p.logger.Errorf("publish schedule to depot %s: %v", msg.DepotID, err)
		return "", false, time.Since(start), err
	}
	mqttSuccess.Inc()
	ack, err := pub.WaitForAck(cmdID, p.cfg.AckTimeout())
	return cmdID, ack, time.Since(start), err
}
