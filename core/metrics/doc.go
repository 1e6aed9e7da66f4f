// Package metrics defines the sinks that record planning runs. A sink only
// has to record plan summaries; sinks that also implement DemandRecorder,
// InductionRecorder, ShortfallRecorder or DistributionRecorder receive the
// detailed series. NewMetricsSink builds sinks from configuration and combines
// several of them in a MultiSink.
package metrics
