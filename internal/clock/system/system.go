// Package system provides the wall clock used outside of tests.
package system

import "time"

// Clock implements contact.Clock. Times are always UTC so job timestamps
// serialize with a Z suffix.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time truncated to milliseconds.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
