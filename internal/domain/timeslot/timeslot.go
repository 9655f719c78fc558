package timeslot

import (
	"fmt"
	"strings"
	"time"
)

// Range is a half-open interval [Start, End) on the absolute timeline.
type Range struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two ranges share any instant.
// Touching endpoints do not overlap.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && r.End.After(other.Start)
}

func (r Range) String() string {
	return r.Start.Format(clockLayout) + separator + r.End.Format(clockLayout)
}

const (
	clockLayout = "15:04"
	separator   = " - "
)

// Pattern is a doctor's recurring, date-less availability window,
// e.g. 09:00-10:00 every day. Start and End are offsets from midnight.
type Pattern struct {
	Start time.Duration
	End   time.Duration
}

// Parse converts a stored "HH:mm - HH:mm" window into a Pattern.
// The separator tolerates missing surrounding spaces.
func Parse(s string) (Pattern, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Pattern{}, fmt.Errorf("%w: %q", ErrMalformedPattern, s)
	}

	start, err := parseClock(strings.TrimSpace(parts[0]))
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: %q", ErrMalformedPattern, s)
	}
	end, err := parseClock(strings.TrimSpace(parts[1]))
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: %q", ErrMalformedPattern, s)
	}

	if end <= start {
		return Pattern{}, fmt.Errorf("%w: %q", ErrEndNotAfterStart, s)
	}

	return Pattern{Start: start, End: end}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// OnDate materializes the pattern onto a calendar date, producing the
// concrete range in that date's location.
func (p Pattern) OnDate(date time.Time) Range {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return Range{Start: midnight.Add(p.Start), End: midnight.Add(p.End)}
}

func (p Pattern) String() string {
	return formatClock(p.Start) + separator + formatClock(p.End)
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// noon is the AM/PM cutoff: a pattern starting strictly before 12:00 is AM.
const noon = 12 * time.Hour

// Bucket is a coarse time-of-day classification used only for filtering,
// never for conflict logic.
type Bucket string

const (
	BucketAM Bucket = "AM"
	BucketPM Bucket = "PM"
)

func ParseBucket(s string) (Bucket, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AM":
		return BucketAM, nil
	case "PM":
		return BucketPM, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBucket, s)
}

func (p Pattern) Bucket() Bucket {
	if p.Start < noon {
		return BucketAM
	}
	return BucketPM
}

// DayBounds returns the inclusive [00:00:00, 23:59:59.999999999] window of
// the date, matching the between-queries used for day-scoped lookups.
func DayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.Add(24*time.Hour - time.Nanosecond)
}
