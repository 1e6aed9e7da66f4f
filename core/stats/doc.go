// Package stats summarises a planning run: the headline figures returned to
// callers and the derived insights used for reporting.
package stats
