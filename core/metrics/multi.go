package metrics

import (
	"errors"
	"io"
)

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordPlan(rec PlanRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordDemand forwards demand points to sinks supporting them.
func (m *MultiSink) RecordDemand(points []DemandPoint) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DemandRecorder); ok {
			if err := rec.RecordDemand(points); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordInduction forwards schedule points.
func (m *MultiSink) RecordInduction(points []InductionPoint) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(InductionRecorder); ok {
			if err := rec.RecordInduction(points); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordShortfall forwards shortfall events.
func (m *MultiSink) RecordShortfall(ev ShortfallEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ShortfallRecorder); ok {
			if err := rec.RecordShortfall(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDistribution forwards distribution events.
func (m *MultiSink) RecordDistribution(ev DistributionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DistributionRecorder); ok {
			if err := rec.RecordDistribution(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink implementing io.Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
