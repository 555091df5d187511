package clock

import (
	"sync"
	"time"

	"pharmapos/m/domain"
)

// Clock supplies the current instant and the current calendar day.
type Clock interface {
	Now() time.Time
	Today() domain.Date
}

// System reads the wall clock in a fixed location.
type System struct {
	Location *time.Location
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

func (s System) Today() domain.Date { return domain.DateOf(s.Now()) }

// Fixed is a settable clock for tests.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixed(t time.Time) *Fixed { return &Fixed{t: t} }

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *Fixed) Today() domain.Date { return domain.DateOf(f.Now()) }

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}
