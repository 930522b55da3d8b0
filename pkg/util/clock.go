package util

import (
	"time"
)

// Clock stamps decoded samples. It exists so tests can pin the time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements the Clock interface using the real time package.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
