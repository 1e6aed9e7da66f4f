// Package prediction estimates hourly passenger demand per transit line from
// the line topology and the contextual modifiers of a planning run. The
// estimate is a rule-based heuristic with a bounded random jitter; the random
// source is injectable so runs can be made reproducible.
package prediction
