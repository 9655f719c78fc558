package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusNoShow, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusNoShow, StatusCompleted, false},
	}

	for _, tt := range tests {
		a := &Appointment{Status: tt.from}
		assert.Equal(t, tt.allowed, a.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestCancel(t *testing.T) {
	t.Run("records who cancelled and when", func(t *testing.T) {
		a := &Appointment{Status: StatusScheduled}
		by := uuid.New()

		require.NoError(t, a.Cancel(by))
		assert.Equal(t, StatusCancelled, a.Status)
		require.NotNil(t, a.CancelledBy)
		assert.Equal(t, by, *a.CancelledBy)
		assert.NotNil(t, a.CancelledAt)
	})

	t.Run("cannot cancel a completed appointment", func(t *testing.T) {
		a := &Appointment{Status: StatusCompleted}
		assert.ErrorIs(t, a.Cancel(uuid.New()), ErrInvalidStatusTransition)
	})
}

func TestComplete(t *testing.T) {
	a := &Appointment{Status: StatusScheduled}
	require.NoError(t, a.Complete())
	assert.Equal(t, StatusCompleted, a.Status)
	assert.NotNil(t, a.CompletedAt)

	assert.ErrorIs(t, a.Complete(), ErrInvalidStatusTransition)
}

func TestInterval(t *testing.T) {
	start := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	a := &Appointment{StartsAt: start}

	assert.Equal(t, start.Add(time.Hour), a.EndsAt())

	iv := a.Interval()
	assert.Equal(t, start, iv.Start)
	assert.Equal(t, start.Add(SlotDuration), iv.End)

	// Back-to-back appointments do not overlap.
	next := &Appointment{StartsAt: a.EndsAt()}
	assert.False(t, iv.Overlaps(next.Interval()))

	assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), a.Date())
}

func TestConditionStatus(t *testing.T) {
	status, ok := ConditionPast.Status()
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, status)

	status, ok = ConditionFuture.Status()
	require.True(t, ok)
	assert.Equal(t, StatusScheduled, status)

	_, ok = Condition("yesterday").Status()
	assert.False(t, ok)
}
