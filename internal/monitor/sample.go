package monitor

import (
	"errors"
	"fmt"
	"time"

	"github.com/uptime-industries/ccvs-speed/pkg/j1939/ccvs"
	"github.com/uptime-industries/ccvs-speed/pkg/j1939/payload"
)

var ErrMalformed = errors.New("malformed payload")

// Result labels used for metrics and output.
const (
	ResultDecoded      = "decoded"
	ResultTooShort     = "too_short"
	ResultNotAvailable = "not_available"
	ResultNegative     = "negative"
	ResultOutOfRange   = "out_of_range"
	ResultMalformed    = "malformed"
)

// Sample is one processed payload.
type Sample struct {
	Time    time.Time
	Payload []byte
	MPH     float64
	// Err is nil for a valid speed
	Err error
}

// NewSample decodes msg into a Sample stamped with ts.
func NewSample(ts time.Time, msg []byte) Sample {
	mph, err := ccvs.Parse(msg)
	return Sample{Time: ts, Payload: msg, MPH: mph, Err: err}
}

func (s Sample) Valid() bool {
	return s.Err == nil
}

// Result maps the sample onto its result label.
func (s Sample) Result() string {
	return ResultOf(s.Err)
}

// ResultOf maps a decode error onto its result label.
func ResultOf(err error) string {
	switch {
	case err == nil:
		return ResultDecoded
	case errors.Is(err, ccvs.ErrTooShort):
		return ResultTooShort
	case errors.Is(err, ccvs.ErrNotAvailable):
		return ResultNotAvailable
	case errors.Is(err, ccvs.ErrNegative):
		return ResultNegative
	case errors.Is(err, ccvs.ErrOutOfRange):
		return ResultOutOfRange
	default:
		return ResultMalformed
	}
}

func (s Sample) String() string {
	ts := s.Time.Format(time.RFC3339Nano)
	if !s.Valid() {
		return fmt.Sprintf("%s [%s] -> n/a (%s)", ts, payload.FormatHex(s.Payload), s.Result())
	}
	return fmt.Sprintf("%s [%s] -> %.3f mph", ts, payload.FormatHex(s.Payload), s.MPH)
}
