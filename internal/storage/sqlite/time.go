package sqlite

import (
	"fmt"
	"time"
)

// timeFormat is RFC3339 with nanoseconds in UTC. SQLite has no native
// datetime type; timestamps are stored as TEXT in this shape.
const timeFormat = "2006-01-02T15:04:05.999999999Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
