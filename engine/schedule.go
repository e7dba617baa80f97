package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseWallClock parses an "HH:MM" recalibration time.
func ParseWallClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("wall clock %q: want HH:MM", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("wall clock %q: bad hour", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("wall clock %q: bad minute", s)
	}
	return hour, minute, nil
}

// nextRecalibration returns the next occurrence of hour:minute in loc
// strictly after now. The wall-clock time is anchored in the exchange's
// zone, so it stays fixed across DST shifts.
func nextRecalibration(now time.Time, loc *time.Location, hour, minute int) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
