package prediction

import (
	"math"

	"github.com/kilianp07/metroplan/core/model"
)

// Forecaster produces a demand estimate for a set of lines and hours.
type Forecaster interface {
	Forecast(lines model.Lines, hours []int, cond model.Conditions) (model.Demand, error)
}

// RuleForecaster applies the station-based heuristic with a random jitter.
type RuleForecaster struct {
	cfg Config
	rnd RandomSource
}

// NewRuleForecaster returns a forecaster using cfg. A nil src selects the
// source implied by cfg.
func NewRuleForecaster(cfg Config, src RandomSource) *RuleForecaster {
	if src == nil {
		src = cfg.Source()
	}
	return &RuleForecaster{cfg: cfg, rnd: src}
}

// Config returns the factors used by the forecaster.
func (f *RuleForecaster) Config() Config { return f.cfg }

// Forecast returns an entry for every line and hour and nothing else. Lines
// are processed in order and hours in caller order, so a given source
// sequence always maps to the same line-hour pairs.
func (f *RuleForecaster) Forecast(lines model.Lines, hours []int, cond model.Conditions) (model.Demand, error) {
	if err := model.ValidateHours(hours); err != nil {
		return nil, err
	}
	if err := cond.Validate(); err != nil {
		return nil, err
	}
	if err := lines.Validate(); err != nil {
		return nil, err
	}
	demand := make(model.Demand, len(lines))
	for _, l := range lines {
		series := make(model.Series, len(hours))
		for _, h := range hours {
			series[h] = f.estimate(l.StationCount(), h, cond)
		}
		demand[l.ID] = series
	}
	return demand, nil
}

// Expected returns the deterministic estimate for one line-hour, without
// jitter.
func (f *RuleForecaster) Expected(stations, hour int, cond model.Conditions) float64 {
	v := float64(stations * f.cfg.PassengersPerStation)
	v *= PeriodOf(hour).Multiplier(f.cfg)
	if cond.IsWeekend() {
		v *= f.cfg.Weekend
	}
	if cond.SevereWeather() {
		v *= f.cfg.SevereWeather
	}
	if cond.SpecialEvent() {
		v *= f.cfg.SpecialEvent
	}
	return v
}

func (f *RuleForecaster) estimate(stations, hour int, cond model.Conditions) int {
	v := f.Expected(stations, hour, cond)
	v *= 1 - f.cfg.Jitter + 2*f.cfg.Jitter*f.rnd.Float64()
	return max(int(math.Round(v)), 0)
}
