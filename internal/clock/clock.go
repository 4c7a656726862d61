package clock

import (
	"sync"
	"time"
)

// Clock is the single source of "now" for expiry and rate-window decisions.
type Clock interface {
	Now() time.Time
}

type System struct{}

func New() System { return System{} }

func (System) Now() time.Time { return time.Now().UTC() }

// Manual is a settable clock for tests and replayed jobs.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start.UTC()}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t.UTC()
	m.mu.Unlock()
}

func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}
