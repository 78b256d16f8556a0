package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalDuration(t *testing.T) {
	d, ok := IntervalDuration("30m")
	assert.True(t, ok)
	assert.Equal(t, 30*time.Minute, d)

	d, ok = IntervalDuration("1d")
	assert.True(t, ok)
	assert.Equal(t, 24*time.Hour, d)

	_, ok = IntervalDuration("7m")
	assert.False(t, ok)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"1h", "daily", "5m"}, SplitCSV(" 1h, daily,,5m "))
	assert.Nil(t, SplitCSV(" , "))
}
