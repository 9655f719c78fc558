package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mk(h, m int) time.Time {
	return time.Date(2026, time.September, 1, h, m, 0, 0, time.UTC)
}

func TestRangeOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want bool
	}{
		{
			name: "identical",
			a:    Range{mk(9, 0), mk(10, 0)},
			b:    Range{mk(9, 0), mk(10, 0)},
			want: true,
		},
		{
			name: "partial overlap",
			a:    Range{mk(9, 0), mk(10, 0)},
			b:    Range{mk(9, 30), mk(10, 30)},
			want: true,
		},
		{
			name: "containment",
			a:    Range{mk(9, 0), mk(12, 0)},
			b:    Range{mk(10, 0), mk(11, 0)},
			want: true,
		},
		{
			name: "touching endpoints do not overlap",
			a:    Range{mk(9, 0), mk(10, 0)},
			b:    Range{mk(10, 0), mk(11, 0)},
			want: false,
		},
		{
			name: "disjoint",
			a:    Range{mk(9, 0), mk(10, 0)},
			b:    Range{mk(14, 0), mk(15, 0)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("standard form", func(t *testing.T) {
		p, err := Parse("09:00 - 10:00")
		require.NoError(t, err)
		assert.Equal(t, 9*time.Hour, p.Start)
		assert.Equal(t, 10*time.Hour, p.End)
	})

	t.Run("separator without spaces", func(t *testing.T) {
		p, err := Parse("09:30-17:45")
		require.NoError(t, err)
		assert.Equal(t, 9*time.Hour+30*time.Minute, p.Start)
		assert.Equal(t, 17*time.Hour+45*time.Minute, p.End)
	})

	t.Run("malformed inputs", func(t *testing.T) {
		for _, s := range []string{"", "0900", "09:00", "9am - 10am", "25:00 - 26:00"} {
			_, err := Parse(s)
			assert.ErrorIs(t, err, ErrMalformedPattern, "input %q", s)
		}
	})

	t.Run("end must be after start", func(t *testing.T) {
		for _, s := range []string{"10:00 - 09:00", "09:00 - 09:00"} {
			_, err := Parse(s)
			assert.ErrorIs(t, err, ErrEndNotAfterStart, "input %q", s)
		}
	})
}

func TestPatternOnDate(t *testing.T) {
	p, err := Parse("09:00 - 10:00")
	require.NoError(t, err)

	date := time.Date(2026, time.September, 1, 17, 33, 12, 0, time.UTC)
	r := p.OnDate(date)

	assert.Equal(t, mk(9, 0), r.Start)
	assert.Equal(t, mk(10, 0), r.End)
	assert.Equal(t, "09:00 - 10:00", r.String())
	assert.Equal(t, "09:00 - 10:00", p.String())
}

func TestBuckets(t *testing.T) {
	t.Run("pattern start decides the bucket", func(t *testing.T) {
		am, err := Parse("11:59 - 13:00")
		require.NoError(t, err)
		assert.Equal(t, BucketAM, am.Bucket())

		pm, err := Parse("12:00 - 13:00")
		require.NoError(t, err)
		assert.Equal(t, BucketPM, pm.Bucket())
	})

	t.Run("parse is case-insensitive", func(t *testing.T) {
		b, err := ParseBucket(" am ")
		require.NoError(t, err)
		assert.Equal(t, BucketAM, b)

		b, err = ParseBucket("PM")
		require.NoError(t, err)
		assert.Equal(t, BucketPM, b)
	})

	t.Run("unknown bucket", func(t *testing.T) {
		_, err := ParseBucket("evening")
		assert.ErrorIs(t, err, ErrUnknownBucket)
	})
}

func TestDayBounds(t *testing.T) {
	date := time.Date(2026, time.September, 1, 17, 33, 12, 999, time.UTC)
	start, end := DayBounds(date)

	assert.Equal(t, mk(0, 0), start)
	assert.Equal(t, mk(0, 0).Add(24*time.Hour-time.Nanosecond), end)
	// Midnight of the next day is outside the bounds.
	assert.True(t, end.Before(mk(0, 0).Add(24*time.Hour)))
}
