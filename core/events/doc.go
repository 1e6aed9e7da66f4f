// Package events defines the planning events emitted on the event bus.
//
// Available event types:
//   - PlanEvent: a planning run completed
//   - ShortfallEvent: an hour was under-provisioned
//   - DistributionEvent: a depot schedule was delivered or failed
package events
