package doctor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinicdesk/internal/domain/timeslot"
)

func TestParsePatterns(t *testing.T) {
	t.Run("keeps declared order", func(t *testing.T) {
		d := &Doctor{AvailableTimes: []string{"14:00 - 15:00", "09:00 - 10:00"}}
		skipped := d.ParsePatterns()

		assert.Empty(t, skipped)
		require.Len(t, d.Patterns, 2)
		assert.Equal(t, "14:00 - 15:00", d.Patterns[0].String())
		assert.Equal(t, "09:00 - 10:00", d.Patterns[1].String())
	})

	t.Run("skips malformed entries without failing", func(t *testing.T) {
		d := &Doctor{AvailableTimes: []string{"bogus", "09:00 - 10:00", "10:00 - 09:00"}}
		skipped := d.ParsePatterns()

		assert.Equal(t, []string{"bogus", "10:00 - 09:00"}, skipped)
		require.Len(t, d.Patterns, 1)
	})

	t.Run("reparsing resets previous state", func(t *testing.T) {
		d := &Doctor{AvailableTimes: []string{"09:00 - 10:00"}}
		d.ParsePatterns()
		d.ParsePatterns()
		assert.Len(t, d.Patterns, 1)
	})
}

func TestAvailableIn(t *testing.T) {
	d := &Doctor{AvailableTimes: []string{"09:00 - 10:00"}}
	d.ParsePatterns()

	assert.True(t, d.AvailableIn(timeslot.BucketAM))
	assert.False(t, d.AvailableIn(timeslot.BucketPM))
}

func TestFullName(t *testing.T) {
	d := &Doctor{FirstName: "Grace", LastName: "Osei"}
	assert.Equal(t, "Grace Osei", d.FullName())
}
