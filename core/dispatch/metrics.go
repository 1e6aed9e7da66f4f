package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	planRuns        *prometheus.CounterVec
	planLatency     prometheus.Histogram
	trainsScheduled *prometheus.GaugeVec
	shortfallHours  prometheus.Counter
	ackRate         prometheus.Gauge
	mqttSuccess     prometheus.Counter
	mqttFailure     prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Histogram, *prometheus.GaugeVec, prometheus.Counter, prometheus.Gauge, prometheus.Counter, prometheus.Counter) {
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_runs_total",
			Help: "Number of planning runs by result",
		},
		[]string{"result"},
	)
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plan_duration_seconds",
			Help:    "Time spent forecasting, allocating and summarising one run",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
	)
	trains := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "depot_trains_scheduled",
			Help: "Trains scheduled by depot over the last run",
		},
		[]string{"depot_id"},
	)
	short := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plan_underprovisioned_hours_total",
			Help: "Number of hours scheduled with fewer trains than demand requires",
		},
	)
	ack := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedule_ack_rate",
			Help: "Share of depot schedules acknowledged in the last distribution",
		},
	)
	suc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mqtt_publish_success_total",
			Help: "Number of successful MQTT publish operations",
		},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mqtt_publish_failure_total",
			Help: "Number of failed MQTT publish operations",
		},
	)
	return runs, lat, trains, short, ack, suc, fail
}

func init() {
	planRuns, planLatency, trainsScheduled, shortfallHours, ackRate, mqttSuccess, mqttFailure = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers planning metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(planRuns, planLatency, trainsScheduled, shortfallHours, ackRate, mqttSuccess, mqttFailure)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	planRuns, planLatency, trainsScheduled, shortfallHours, ackRate, mqttSuccess, mqttFailure = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
