package testfixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	assert.True(t, clock.Now().Equal(ReferenceTime()))
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)

	assert.Equal(t, start.Add(90*time.Minute), clock.Advance(90*time.Minute))

	clock.Set(start.Add(2 * time.Hour))
	assert.Equal(t, start.Add(2*time.Hour), clock.Current())
}

func TestSteppingClock(t *testing.T) {
	start := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	clock := NewSteppingClock(start, time.Second)
	nowFn := clock.NowFunc()

	assert.Equal(t, start, nowFn())
	assert.Equal(t, start.Add(time.Second), nowFn())
	assert.Equal(t, start.Add(2*time.Second), clock.Current())
}
