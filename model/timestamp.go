package model

import (
	"errors"
	"fmt"
	"time"
)

const (
	// minTimestampSeconds is 0001-01-01T00:00:00Z
	minTimestampSeconds = -62135596800
	// maxTimestampSeconds is 9999-12-31T23:59:59Z
	maxTimestampSeconds = 253402300799

	nanosPerSecond = 1_000_000_000
)

// ErrInvalidTimestamp is returned for timestamps outside the supported range
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Timestamp is a point in time with nanosecond precision, independent of
// any time zone. Seconds count from the Unix epoch; Nanos is always
// non-negative, so negative instants carry a positive fraction.
type Timestamp struct {
	seconds int64
	nanos   int32
}

// NewTimestamp creates a timestamp, validating its range
func NewTimestamp(seconds int64, nanos int32) (Timestamp, error) {
	if nanos < 0 || nanos >= nanosPerSecond {
		return Timestamp{}, fmt.Errorf("%w: nanos %d out of range [0, 1e9)", ErrInvalidTimestamp, nanos)
	}
	if seconds < minTimestampSeconds || seconds > maxTimestampSeconds {
		return Timestamp{}, fmt.Errorf("%w: seconds %d out of range", ErrInvalidTimestamp, seconds)
	}
	return Timestamp{seconds: seconds, nanos: nanos}, nil
}

// MustTimestamp is NewTimestamp that panics on error. Intended for constants and tests.
func MustTimestamp(seconds int64, nanos int32) Timestamp {
	ts, err := NewTimestamp(seconds, nanos)
	if err != nil {
		panic(err)
	}
	return ts
}

// TimestampFromTime converts a time.Time
func TimestampFromTime(t time.Time) (Timestamp, error) {
	return NewTimestamp(t.Unix(), int32(t.Nanosecond()))
}

// Seconds returns the seconds since the Unix epoch
func (t Timestamp) Seconds() int64 {
	return t.seconds
}

// Nanos returns the non-negative fraction of the second
func (t Timestamp) Nanos() int32 {
	return t.nanos
}

// Time converts to a UTC time.Time
func (t Timestamp) Time() time.Time {
	return time.Unix(t.seconds, int64(t.nanos)).UTC()
}

// Compare orders by seconds, then nanos
func (t Timestamp) Compare(other Timestamp) int {
	if c := compareInt64s(t.seconds, other.seconds); c != 0 {
		return c
	}
	return compareInt64s(int64(t.nanos), int64(other.nanos))
}

// String returns an RFC 3339 representation with nanoseconds
func (t Timestamp) String() string {
	return t.Time().Format(time.RFC3339Nano)
}

// ServerTimestamp is a timestamp still waiting for resolution by the
// backend. LocalWriteTime is when the client wrote it. PreviousValue is the
// concrete value it replaced and is only meaningful when HasPreviousValue
// is set.
type ServerTimestamp struct {
	LocalWriteTime   Timestamp
	PreviousValue    Timestamp
	HasPreviousValue bool
}

// Previous returns the replaced value, if there was one
func (s ServerTimestamp) Previous() (Timestamp, bool) {
	if !s.HasPreviousValue {
		return Timestamp{}, false
	}
	return s.PreviousValue, true
}

// String returns a representation for debugging
func (s ServerTimestamp) String() string {
	if s.HasPreviousValue {
		return fmt.Sprintf("ServerTimestamp(local=%s, previous=%s)", s.LocalWriteTime, s.PreviousValue)
	}
	return fmt.Sprintf("ServerTimestamp(local=%s)", s.LocalWriteTime)
}
