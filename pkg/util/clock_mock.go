package util

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// fails if MockClock does not implement Clock
var _ Clock = &MockClock{}

// MockClock implements the Clock interface using the testify mock package.
type MockClock struct {
	mock.Mock
}

// Now returns the time configured on the mock.
func (mc *MockClock) Now() time.Time {
	args := mc.Called()
	return args.Get(0).(time.Time)
}
