package domain

import "time"

// Clock abstracts time.Now so due-date and overdue computations can be
// pinned in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
