package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/metroplan/core/metrics"
	"github.com/kilianp07/metroplan/infra/logger"
)

// InfluxSink writes planning runs to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

// RecordPlan writes the run summary.
func (s *InfluxSink) RecordPlan(rec coremetrics.PlanRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_run").
		AddTag("run_id", rec.RunID).
		AddTag("weekday", strconv.Itoa(rec.Conditions.Weekday)).
		AddTag("weather", strconv.Itoa(rec.Conditions.Weather)).
		AddTag("event", strconv.Itoa(rec.Conditions.Event)).
		AddField("lines", rec.Lines).
		AddField("depots", rec.Depots).
		AddField("hours", rec.Hours).
		AddField("total_trains", rec.TotalTrainsUsed).
		AddField("peak_hour", rec.PeakHour).
		AddField("shortfall", rec.TotalShortfall).
		AddField("utilization", round3(rec.Utilization)).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDemand writes one point per line and hour in a single request.
func (s *InfluxSink) RecordDemand(points []coremetrics.DemandPoint) error {
	if len(points) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pts := make([]*write.Point, 0, len(points))
	for _, d := range points {
		pts = append(pts, write.NewPointWithMeasurement("line_demand").
			AddTag("run_id", d.RunID).
			AddTag("line_id", d.LineID).
			AddTag("hour", strconv.Itoa(d.Hour)).
			AddField("passengers", d.Passengers).
			SetTime(d.Time))
	}
	return s.writeAPI.WritePoint(ctx, pts...)
}

// RecordInduction writes one point per depot and hour in a single request.
func (s *InfluxSink) RecordInduction(points []coremetrics.InductionPoint) error {
	if len(points) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pts := make([]*write.Point, 0, len(points))
	for _, d := range points {
		pts = append(pts, write.NewPointWithMeasurement("depot_induction").
			AddTag("run_id", d.RunID).
			AddTag("depot_id", d.DepotID).
			AddTag("hour", strconv.Itoa(d.Hour)).
			AddField("trains", d.Trains).
			SetTime(d.Time))
	}
	return s.writeAPI.WritePoint(ctx, pts...)
}

// RecordShortfall writes an under-provisioned hour.
func (s *InfluxSink) RecordShortfall(ev coremetrics.ShortfallEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("hour_shortfall").
		AddTag("run_id", ev.RunID).
		AddTag("hour", strconv.Itoa(ev.Hour)).
		AddField("needed", ev.Needed).
		AddField("scheduled", ev.Scheduled).
		AddField("shortfall", ev.Shortfall).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDistribution writes a schedule delivery result.
func (s *InfluxSink) RecordDistribution(ev coremetrics.DistributionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_delivery").
		AddTag("run_id", ev.RunID).
		AddTag("depot_id", ev.DepotID).
		AddTag("acknowledged", strconv.FormatBool(ev.Acknowledged)).
		AddField("command_id", ev.CommandID).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000))
	if ev.Error != "" {
		p = p.AddField("error", ev.Error)
	}
	p = p.SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
