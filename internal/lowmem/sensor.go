package lowmem

import (
	"sync"
	"time"
)

// reading is the measurement captured when a sensor trips, reported with the
// eventual alert.
type reading struct {
	used      uint64
	threshold uint64
}

// Sensor is a single memory-pressure trigger. Trips are recorded on the
// observing thread; alert delivery happens later on the maintenance worker.
type Sensor struct {
	name     string
	cooldown time.Duration

	mu        sync.Mutex
	triggered bool
	last      reading
	lastAlert time.Time
	trips     int64
}

func newSensor(name string, cooldown time.Duration) *Sensor {
	return &Sensor{name: name, cooldown: cooldown}
}

// Name returns the sensor identifier.
func (s *Sensor) Name() string { return s.name }

// Trips returns how many times the sensor has fired.
func (s *Sensor) Trips() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trips
}

// trip records a crossing. It reports true when the trip should raise
// pending work, honoring the alert cooldown.
func (s *Sensor) trip(used, threshold uint64, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.triggered {
		return false
	}
	if s.cooldown > 0 && !s.lastAlert.IsZero() && now.Sub(s.lastAlert) < s.cooldown {
		return false
	}
	s.triggered = true
	s.last = reading{used: used, threshold: threshold}
	s.trips++
	return true
}

// consume clears the triggered state and returns the recorded measurement.
func (s *Sensor) consume(now time.Time) (reading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.triggered {
		return reading{}, false
	}
	s.triggered = false
	s.lastAlert = now
	return s.last, true
}
