package utilities

import (
	"sync"
	"time"

	"github.com/antonio-alexander/go-employees-api/internal/data"
)

// Timers measures how long each endpoint (group) takes, the timers of a
// group are indexed by the order they were started in
type Timers interface {
	Start(group string) int
	Stop(group string, index int) int64
	ReadAll() *data.Timers
	Clear()
}

type timer struct {
	started time.Time
	elapsed time.Duration
	stopped bool
}

type timers struct {
	sync.RWMutex
	groups map[string][]*timer
}

func NewTimers() Timers {
	return &timers{
		groups: make(map[string][]*timer),
	}
}

func (t *timers) Clear() {
	t.Lock()
	defer t.Unlock()

	t.groups = make(map[string][]*timer)
}

func (t *timers) Start(group string) int {
	t.Lock()
	defer t.Unlock()

	t.groups[group] = append(t.groups[group], &timer{started: time.Now()})
	return len(t.groups[group]) - 1
}

// Stop returns the elapsed nanoseconds or -1 if the timer no longer exists
// (e.g. the timers were cleared while it was running)
func (t *timers) Stop(group string, index int) int64 {
	t.Lock()
	defer t.Unlock()

	timers := t.groups[group]
	if index < 0 || index >= len(timers) {
		return -1
	}
	timer := timers[index]
	if !timer.stopped {
		timer.elapsed, timer.stopped = time.Since(timer.started), true
	}
	return timer.elapsed.Nanoseconds()
}

// ReadAll only includes stopped timers in the totals and averages (in
// nanoseconds); a group with nothing stopped has a zero total and no average
func (t *timers) ReadAll() *data.Timers {
	t.RLock()
	defer t.RUnlock()

	totals, averages := make(map[string]int64), make(map[string]int64)
	for group, timers := range t.groups {
		var total time.Duration
		var stopped int64

		for _, timer := range timers {
			if timer.stopped {
				total += timer.elapsed
				stopped++
			}
		}
		totals[group] = total.Nanoseconds()
		if stopped > 0 {
			averages[group] = total.Nanoseconds() / stopped
		}
	}
	return &data.Timers{
		Totals:   totals,
		Averages: averages,
	}
}
