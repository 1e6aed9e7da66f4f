package dispatch

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/metroplan/core/logger"
	"github.com/kilianp07/metroplan/core/model"
)

// Allocator turns a demand forecast into a per-depot induction schedule.
type Allocator interface {
	Allocate(demand model.Demand, depots model.Depots, trainCapacity int, hours []int) (model.Schedule, error)
}

// GreedyAllocator fills each hour's train requirement from the largest
// depots first. Hours are independent of each other: AvailableTrains is the
// per-hour pool and is never consumed across hours.
type GreedyAllocator struct {
	// Workers > 1 processes hours concurrently. Results are identical to a
	// sequential run.
	Workers int
	Logger  logger.Logger
}

// NewGreedyAllocator returns an allocator using the given number of workers.
func NewGreedyAllocator(workers int, log logger.Logger) *GreedyAllocator {
	return &GreedyAllocator{Workers: workers, Logger: log}
}

// Allocate returns a schedule holding an entry for every depot and hour.
// Unmet demand is not an error; compare with the demand to find shortfalls.
func (a *GreedyAllocator) Allocate(demand model.Demand, depots model.Depots, trainCapacity int, hours []int) (model.Schedule, error) {
	if trainCapacity <= 0 {
		return nil, fmt.Errorf("%w: train capacity must be positive, got %d", model.ErrInvalidConfiguration, trainCapacity)
	}
	if err := depots.Validate(); err != nil {
		return nil, err
	}
	schedule := make(model.Schedule, len(depots))
	if len(depots) == 0 {
		if a.Logger != nil {
			a.Logger.Warnf("no depots configured, schedule for %d hours is empty", len(hours))
		}
		return schedule, nil
	}

	order := byCapacity(depots)
	rows := make([][]int, len(hours))
	a.each(len(hours), func(i int) {
		needed := model.TrainsNeeded(demand.HourTotal(hours[i]), trainCapacity)
		rows[i] = allocateHour(order, needed)
	})

	for _, d := range depots {
		schedule[d.ID] = make(model.Series, len(hours))
	}
	for i, h := range hours {
		for j, d := range order {
			schedule[d.ID][h] = rows[i][j]
		}
	}
	return schedule, nil
}

func (a *GreedyAllocator) each(n int, fn func(i int)) {
	workers := min(a.Workers, n)
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// byCapacity returns a copy of depots sorted by descending capacity. Depots
// of equal capacity keep their relative order.
func byCapacity(depots model.Depots) model.Depots {
	order := make(model.Depots, len(depots))
	copy(order, depots)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Capacity > order[j].Capacity
	})
	return order
}

// allocateHour assigns needed trains over the ordered depots. The result is
// aligned with order.
func allocateHour(order model.Depots, needed int) []int {
	row := make([]int, len(order))
	remaining := needed
	for i, d := range order {
		if remaining <= 0 {
			break
		}
		n := min(d.HourlyCeiling(), remaining)
		row[i] = n
		remaining -= n
	}
	return row
}
