package prediction

import (
	"math/rand"
	"sync"
)

// RandomSource yields uniform values in [0,1).
type RandomSource interface {
	Float64() float64
}

// LockedSource wraps a math/rand generator so it can be shared between
// concurrent runs.
type LockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a reproducible source for the given seed.
func NewSeededSource(seed int64) *LockedSource {
	return &LockedSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *LockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// DefaultSource returns the unseeded process-wide source.
func DefaultSource() RandomSource { return globalSource{} }

// FixedSource replays a fixed sequence of values, cycling when exhausted.
// An empty sequence always yields 0.5, which makes the jitter factor 1.
type FixedSource struct {
	mu     sync.Mutex
	Values []float64
	next   int
}

// NewFixedSource returns a FixedSource replaying values.
func NewFixedSource(values ...float64) *FixedSource {
	return &FixedSource{Values: values}
}

func (s *FixedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Values) == 0 {
		return 0.5
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v
}
