package timeslot

import "errors"

var (
	ErrMalformedPattern = errors.New("malformed availability pattern")
	ErrEndNotAfterStart = errors.New("pattern end must be after start")
	ErrUnknownBucket    = errors.New("time-of-day must be AM or PM")
)
