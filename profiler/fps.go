package profiler

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// FPSMeter measures an event rate over a sliding time window.
type FPSMeter struct {
	clock  clock.Clock
	window time.Duration

	mu    sync.Mutex
	ticks []time.Time
}

// NewFPSMeter creates a meter averaging over window (default 2s).
func NewFPSMeter(c clock.Clock, window time.Duration) *FPSMeter {
	if c == nil {
		c = clock.New()
	}
	if window <= 0 {
		window = 2 * time.Second
	}
	return &FPSMeter{clock: c, window: window}
}

// Tick records one event now.
func (m *FPSMeter) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	m.ticks = append(m.ticks, now)
	m.expire(now)
}

// Rate returns events per second over the window ending now.
func (m *FPSMeter) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(m.clock.Now())
	return float64(len(m.ticks)) / m.window.Seconds()
}

func (m *FPSMeter) expire(now time.Time) {
	cutoff := now.Add(-m.window)
	i := 0
	for i < len(m.ticks) && m.ticks[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		m.ticks = append(m.ticks[:0], m.ticks[i:]...)
	}
}
