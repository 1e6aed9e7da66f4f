package events

import (
	"time"

	"github.com/kilianp07/metroplan/core/model"
)

// PlanEvent is published when a planning run completes.
type PlanEvent struct {
	RunID      string
	Conditions model.Conditions
	Stats      model.Stats
	Insights   model.Insights
	Duration   time.Duration
}

// ShortfallEvent is published for each hour where fewer trains were
// scheduled than the demand requires.
type ShortfallEvent struct {
	RunID  string
	Report model.HourReport
}
