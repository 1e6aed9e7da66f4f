package dispatch

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/metroplan/core/model"
)

func dashboardDepots() model.Depots {
	return model.Depots{
		{ID: "101", Capacity: 25, AvailableTrains: 18, MaxInductPerHour: 5},
		{ID: "102", Capacity: 20, AvailableTrains: 15, MaxInductPerHour: 4},
		{ID: "103", Capacity: 15, AvailableTrains: 12, MaxInductPerHour: 3},
	}
}

func TestAllocateFiveStationScenario(t *testing.T) {
	demand := model.Demand{"A": {8: 3750}}
	a := NewGreedyAllocator(1, nil)
	s, err := a.Allocate(demand, dashboardDepots(), 1200, []int{8})
	require.NoError(t, err)
	assert.Equal(t, 4, s.HourTotal(8))
	assert.Equal(t, 4, s.At("101", 8))
	assert.Equal(t, 0, s.At("102", 8))
	assert.Equal(t, 0, s.At("103", 8))
	_, ok := s["103"][8]
	assert.True(t, ok, "unreached depots still get an explicit zero")
}

func TestAllocateUnderProvisioned(t *testing.T) {
	demand := model.Demand{"A": {8: 12000}}
	depots := model.Depots{{ID: "only", Capacity: 10, AvailableTrains: 10, MaxInductPerHour: 3}}
	s, err := NewGreedyAllocator(1, nil).Allocate(demand, depots, 1200, []int{8})
	require.NoError(t, err)
	assert.Equal(t, 3, s.At("only", 8))
}

func TestAllocateRespectsCeilings(t *testing.T) {
	demand := model.Demand{"A": {7: 100000, 8: 2400, 9: 0}}
	depots := model.Depots{
		{ID: "x", Capacity: 30, AvailableTrains: 2, MaxInductPerHour: 6},
		{ID: "y", Capacity: 10, AvailableTrains: 9, MaxInductPerHour: 4},
	}
	s, err := NewGreedyAllocator(1, nil).Allocate(demand, depots, 1000, []int{7, 8, 9})
	require.NoError(t, err)
	for _, d := range depots {
		for _, h := range []int{7, 8, 9} {
			v := s.At(d.ID, h)
			if v < 0 || v > d.HourlyCeiling() {
				t.Fatalf("depot %s hour %d: %d outside [0,%d]", d.ID, h, v, d.HourlyCeiling())
			}
		}
	}
	assert.Equal(t, 2, s.At("x", 7))
	assert.Equal(t, 4, s.At("y", 7))
	assert.Equal(t, 2, s.At("x", 8))
	assert.Equal(t, 1, s.At("y", 8))
	assert.Equal(t, 0, s.HourTotal(9))
}

func TestAllocateMeetsDemandWhenSupplySuffices(t *testing.T) {
	demand := model.Demand{"1": {7: 5000, 18: 7300}, "2": {7: 4100, 18: 0}}
	s, err := NewGreedyAllocator(1, nil).Allocate(demand, dashboardDepots(), 1200, []int{7, 18})
	require.NoError(t, err)
	for _, h := range []int{7, 18} {
		needed := model.TrainsNeeded(demand.HourTotal(h), 1200)
		assert.Equal(t, needed, s.HourTotal(h), "hour %d", h)
	}
}

func TestAllocateFillsLargestDepotFirst(t *testing.T) {
	demand := model.Demand{"1": {8: 9 * 1200}}
	s, err := NewGreedyAllocator(1, nil).Allocate(demand, dashboardDepots(), 1200, []int{8})
	require.NoError(t, err)
	// 101 (cap 25) is exhausted before 102 receives anything, 102 before 103.
	assert.Equal(t, 5, s.At("101", 8))
	assert.Equal(t, 4, s.At("102", 8))
	assert.Equal(t, 0, s.At("103", 8))
}

func TestAllocateRaisingDepotCeilingNeverLowersTotal(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	a := NewGreedyAllocator(1, nil)
	hours := []int{7, 8, 18}
	for i := 0; i < 500; i++ {
		depots := make(model.Depots, 1+rnd.Intn(4))
		for j := range depots {
			depots[j] = model.Depot{
				ID:               fmt.Sprintf("d%d", j),
				Capacity:         rnd.Intn(3) * 10,
				AvailableTrains:  rnd.Intn(8),
				MaxInductPerHour: rnd.Intn(6),
			}
		}
		demand := model.Demand{"1": {}}
		for _, h := range hours {
			demand["1"][h] = rnd.Intn(20000)
		}
		base, err := a.Allocate(demand, depots, 1200, hours)
		require.NoError(t, err)

		raised := append(model.Depots(nil), depots...)
		k := rnd.Intn(len(raised))
		if rnd.Intn(2) == 0 {
			raised[k].AvailableTrains += 1 + rnd.Intn(5)
		} else {
			raised[k].MaxInductPerHour += 1 + rnd.Intn(5)
		}
		more, err := a.Allocate(demand, raised, 1200, hours)
		require.NoError(t, err)
		if more.Total() < base.Total() {
			t.Fatalf("case %d: raising %s lowered total from %d to %d", i, raised[k].ID, base.Total(), more.Total())
		}
		for _, h := range hours {
			if more.HourTotal(h) < base.HourTotal(h) {
				t.Fatalf("case %d: hour %d total dropped from %d to %d", i, h, base.HourTotal(h), more.HourTotal(h))
			}
		}
	}
}

func TestAllocateEqualCapacityKeepsCallerOrder(t *testing.T) {
	depots := model.Depots{
		{ID: "b", Capacity: 10, AvailableTrains: 5, MaxInductPerHour: 2},
		{ID: "a", Capacity: 10, AvailableTrains: 5, MaxInductPerHour: 2},
	}
	s, err := NewGreedyAllocator(1, nil).Allocate(model.Demand{"1": {8: 300}}, depots, 100, []int{8})
	require.NoError(t, err)
	assert.Equal(t, 2, s.At("b", 8))
	assert.Equal(t, 1, s.At("a", 8))
}

func TestAllocateAvailableNotConsumedAcrossHours(t *testing.T) {
	depots := model.Depots{{ID: "d", Capacity: 5, AvailableTrains: 3, MaxInductPerHour: 3}}
	demand := model.Demand{"1": {7: 300, 8: 300, 9: 300}}
	s, err := NewGreedyAllocator(1, nil).Allocate(demand, depots, 100, []int{7, 8, 9})
	require.NoError(t, err)
	assert.Equal(t, 9, s.Total())
}

func TestAllocateInvalidInput(t *testing.T) {
	a := NewGreedyAllocator(1, nil)
	_, err := a.Allocate(model.Demand{}, dashboardDepots(), 0, []int{8})
	assert.True(t, errors.Is(err, model.ErrInvalidConfiguration))
	_, err = a.Allocate(model.Demand{}, dashboardDepots(), -5, []int{8})
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
	bad := model.Depots{{ID: "d", MaxInductPerHour: -1}}
	_, err = a.Allocate(model.Demand{}, bad, 100, []int{8})
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
}

type warnCounter struct {
	warns int
}

func (w *warnCounter) Debugf(string, ...any)         {}
func (w *warnCounter) Debugw(string, map[string]any) {}
func (w *warnCounter) Infof(string, ...any)          {}
func (w *warnCounter) Warnf(string, ...any)          { w.warns++ }
func (w *warnCounter) Errorf(string, ...any)         {}

func TestAllocateNoDepots(t *testing.T) {
	log := &warnCounter{}
	s, err := NewGreedyAllocator(1, log).Allocate(model.Demand{"1": {8: 5000}}, nil, 1200, []int{8})
	require.NoError(t, err)
	assert.Empty(t, s)
	assert.Equal(t, 0, s.Total())
	assert.Equal(t, 1, log.warns)
}

func TestAllocateWorkersDeterministic(t *testing.T) {
	hours := make([]int, 24)
	demand := model.Demand{"1": {}, "2": {}}
	for h := range hours {
		hours[h] = 23 - h
		demand["1"][h] = (h * 977) % 9000
		demand["2"][h] = (h * 313) % 4000
	}
	seq, err := NewGreedyAllocator(1, nil).Allocate(demand, dashboardDepots(), 1200, hours)
	require.NoError(t, err)
	for _, w := range []int{2, 4, 32} {
		par, err := NewGreedyAllocator(w, nil).Allocate(demand, dashboardDepots(), 1200, hours)
		require.NoError(t, err)
		assert.Equal(t, seq, par, "workers=%d", w)
	}
	again, err := NewGreedyAllocator(1, nil).Allocate(demand, dashboardDepots(), 1200, hours)
	require.NoError(t, err)
	assert.Equal(t, seq, again)
}
