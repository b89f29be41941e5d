package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lemirq/qhacks-sub000/clock"
	"github.com/Lemirq/qhacks-sub000/utils/config"
)

func TestClock(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 0, Total: 100, Interval: 0.5})
	assert.Equal(t, int32(0), c.InternalStep)
	assert.Equal(t, 0.0, c.T)
	assert.Equal(t, int32(100), c.END_STEP)

	c.InternalStep++
	c.T = float64(c.InternalStep) * c.DT
	assert.Equal(t, 0.5, c.T)
	assert.Equal(t, 500.0, c.Ms())

	c.Init()
	assert.Equal(t, int32(0), c.InternalStep)
}

func TestClockFormat(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 0, Total: 10, Interval: 1})
	c.T = 3661.25
	assert.Equal(t, "01:01:01", c.String())
	h, m, s := c.GetHourMinuteSecond()
	assert.Equal(t, 1, h)
	assert.Equal(t, 1, m)
	assert.InDelta(t, 1.25, s, 1e-9)
}
