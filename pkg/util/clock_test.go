package util_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptime-industries/ccvs-speed/pkg/util"
)

func TestRealClockIsUTC(t *testing.T) {
	t.Parallel()
	assert.Equal(t, time.UTC, util.RealClock{}.Now().Location())
}

func TestFixedClock(t *testing.T) {
	t.Parallel()
	ts := time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC)
	clk := util.FixedClock(ts)
	assert.Equal(t, ts, clk.Now())
	assert.Equal(t, ts, clk.Now())
}
