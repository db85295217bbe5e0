package util

import (
	"strconv"
	"time"
)

// ParseTime accepts RFC3339, RFC3339Nano or positive unix seconds.
// Results are normalised to UTC.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// AlignFromTo rounds the time range down to the timeframe's bucket boundary.
func AlignFromTo(from, to time.Time, tf string) (time.Time, time.Time) {
	d := time.Minute
	switch tf {
	case "1s":
		d = time.Second
	case "5m":
		d = 5 * time.Minute
	}
	return from.Truncate(d), to.Truncate(d)
}
