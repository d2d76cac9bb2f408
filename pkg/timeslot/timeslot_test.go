package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHHMM(t *testing.T) {
	for _, ok := range []string{"00:00", "08:30", "19:05", "23:59"} {
		assert.True(t, IsHHMM(ok), ok)
	}
	for _, bad := range []string{"8:30", "24:00", "12:60", "12-30", "", "12:3"} {
		assert.False(t, IsHHMM(bad), bad)
	}
}

func TestParseRangeRequiresOrderedTimes(t *testing.T) {
	r, err := ParseRange("18:00", "19:30")
	require.NoError(t, err)
	assert.Equal(t, 18*60, r.Start)
	assert.Equal(t, "18:00-19:30", r.String())

	_, err = ParseRange("19:30", "18:00")
	assert.Error(t, err)
	_, err = ParseRange("18:00", "18:00")
	assert.Error(t, err)
	_, err = ParseRange("6pm", "7pm")
	assert.Error(t, err)
}

func TestRangeOverlapIsHalfOpen(t *testing.T) {
	a := Range{Start: 600, End: 660}
	assert.True(t, a.Overlaps(Range{Start: 630, End: 700}))
	assert.False(t, a.Overlaps(Range{Start: 660, End: 720}), "touching ranges do not overlap")
	assert.True(t, Range{Start: 480, End: 720}.Covers(a))
	assert.False(t, Range{Start: 610, End: 720}.Covers(a))
}

func TestWeekdayOf(t *testing.T) {
	assert.Equal(t, Monday, WeekdayOf(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Sunday, WeekdayOf(time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsWeekday("Chủ nhật"))
	assert.False(t, IsWeekday("Monday"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "08:05", Normalize("8:05"))
	assert.Equal(t, "18:00", Normalize(" 18:00 "))
	assert.Equal(t, "25:00", Normalize("25:00"))
}

type slotPayload struct {
	Day   string `validate:"required,weekday_vi"`
	Start string `validate:"required,hhmm"`
}

func TestValidatorTags(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Struct(slotPayload{Day: Tuesday, Start: "07:45"}))
	assert.Error(t, v.Struct(slotPayload{Day: "Tuesday", Start: "07:45"}))
	assert.Error(t, v.Struct(slotPayload{Day: Tuesday, Start: "7:45"}))
}
