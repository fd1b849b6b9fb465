// Package clock abstracts time for components that evaluate deadlines,
// so expiration logic stays testable.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func NewSystem() System {
	return System{}
}

func (System) Now() time.Time {
	return time.Now()
}

// Fixed returns a preset instant and only moves when told to.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.t
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.t = f.t.Add(d)
}

func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.t = t
}
