package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	got, err := ParseClock("08:30:00")
	require.NoError(t, err)
	assert.Equal(t, "08:30", got)

	got, err = ParseClock(" 19:05 ")
	require.NoError(t, err)
	assert.Equal(t, "19:05", got)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(now, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, DaysBetween(now, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 7, DaysBetween(now, time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -2, DaysBetween(now, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)))
}

func TestSlotContains(t *testing.T) {
	s := AvailabilitySlot{StartTime: "09:00", EndTime: "11:00", Remaining: 1}
	assert.True(t, s.Contains("09:00"))
	assert.True(t, s.Contains("10:59"))
	assert.False(t, s.Contains("11:00"))
	assert.False(t, s.Contains("08:59"))
	assert.True(t, s.Open())
}

func TestReservationStatusTerminal(t *testing.T) {
	assert.False(t, ReservationPending.Terminal())
	assert.False(t, ReservationConfirmed.Terminal())
	assert.True(t, ReservationFinalized.Terminal())
	assert.True(t, ReservationRejected.Terminal())
	assert.True(t, ReservationCancelled.Terminal())
}

func TestPageRequestNormalize(t *testing.T) {
	p := PageRequest{Page: 0, PageSize: 1000}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 20, PageRequest{Page: 2}.Offset())
}
