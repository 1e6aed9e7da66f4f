package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/metroplan/core/metrics"
)

// PromSink exposes planning runs as Prometheus metrics.
type PromSink struct {
	trains       prometheus.Gauge
	peakHour     prometheus.Gauge
	utilization  prometheus.Gauge
	demand       *prometheus.GaugeVec
	shortfall    *prometheus.CounterVec
	distribution *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		trains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metro_plan_trains_used",
			Help: "Trains used by the last planning run",
		}),
		peakHour: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metro_plan_peak_hour",
			Help: "Hour with the highest predicted demand in the last run",
		}),
		utilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metro_plan_utilization_ratio",
			Help: "Trains used divided by total depot capacity in the last run",
		}),
		demand: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "metro_line_demand_passengers",
			Help: "Predicted passengers per line and hour in the last run",
		}, []string{"line_id", "hour"}),
		shortfall: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metro_hour_shortfall_trains_total",
			Help: "Trains missing to cover demand, by hour",
		}, []string{"hour"}),
		distribution: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metro_schedule_deliveries_total",
			Help: "Depot schedule deliveries by outcome",
		}, []string{"depot_id", "acknowledged"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "metro_schedule_ack_latency_seconds",
			Help:    "Time between schedule publish and depot acknowledgment",
			Buckets: prometheus.DefBuckets,
		}, []string{"depot_id"}),
	}
	var err error
	if s.trains, err = register(reg, s.trains); err != nil {
		return nil, err
	}
	if s.peakHour, err = register(reg, s.peakHour); err != nil {
		return nil, err
	}
	if s.utilization, err = register(reg, s.utilization); err != nil {
		return nil, err
	}
	if s.demand, err = register(reg, s.demand); err != nil {
		return nil, err
	}
	if s.shortfall, err = register(reg, s.shortfall); err != nil {
		return nil, err
	}
	if s.distribution, err = register(reg, s.distribution); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing the collector already registered under the
// same name.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPlan sets the gauges of the last run.
func (s *PromSink) RecordPlan(rec coremetrics.PlanRecord) error {
	s.trains.Set(float64(rec.TotalTrainsUsed))
	s.peakHour.Set(float64(rec.PeakHour))
	s.utilization.Set(rec.Utilization)
	return nil
}

// RecordDemand sets the per line-hour demand gauges.
func (s *PromSink) RecordDemand(points []coremetrics.DemandPoint) error {
	for _, p := range points {
		s.demand.WithLabelValues(p.LineID, strconv.Itoa(p.Hour)).Set(float64(p.Passengers))
	}
	return nil
}

// RecordShortfall adds the missing trains of an hour.
func (s *PromSink) RecordShortfall(ev coremetrics.ShortfallEvent) error {
	s.shortfall.WithLabelValues(strconv.Itoa(ev.Hour)).Add(float64(ev.Shortfall))
	return nil
}

// RecordDistribution counts a delivery and observes its latency.
func (s *PromSink) RecordDistribution(ev coremetrics.DistributionEvent) error {
	s.distribution.WithLabelValues(ev.DepotID, strconv.FormatBool(ev.Acknowledged)).Inc()
	if ev.Acknowledged {
		s.latency.WithLabelValues(ev.DepotID).Observe(ev.Latency.Seconds())
	}
	return nil
}
