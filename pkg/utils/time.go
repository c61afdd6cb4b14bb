package utils

import "time"

// FormatTimestamp renders a time in UTC with nanosecond precision for storage
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp parses a value written by FormatTimestamp
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
