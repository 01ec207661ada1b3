package timeutil

import "time"

// Now returns the current UTC time truncated to the microsecond precision stored by the datastore.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// ToMicros converts t into unix microseconds.
func ToMicros(t time.Time) int64 {
	return t.UnixMicro()
}

// FromMicros converts unix microseconds back into UTC time.
func FromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
