// Package system provides the wall clock used outside tests and the
// millisecond timestamp format the dashboard reads.
package system

import "time"

// TimestampLayout matches the ISO strings browsers produce from
// Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Clock implements adforge.Clock. Readings are UTC and truncated to the
// millisecond, the precision BSON dates keep.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Timestamp formats t in UTC with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
