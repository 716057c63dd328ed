package clock

import "time"

// FakeClock reports a fixed instant so tests can pin date-sensitive logic
// like the academic year rollover. Not safe for concurrent use.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start.UTC()}
}

func (f *FakeClock) Now() time.Time { return f.now }

// Advance moves the reported instant forward by d.
func (f *FakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}
