package schedule

import (
	"strconv"
	"strings"
	"time"
)

// WindowMinutes is the width of the due window after a target time. It
// matches the tick interval so every due moment is observed by exactly one
// tick under normal operation.
const WindowMinutes = 15

// Due reports whether now falls inside the due window [target, target+15m)
// for a "HH:MM" target. The comparison is within-hour only: a target near the
// top of an hour (e.g. 06:58 checked at 07:05) is never due in the next hour.
// That boundary gap is the documented reference behavior; callers that need
// it closed must move the target time, not this function.
//
// Malformed targets are never due.
func Due(target string, now time.Time) bool {
	hour, minute, ok := parseTarget(target)
	if !ok {
		return false
	}
	if now.Hour() != hour {
		return false
	}
	diff := now.Minute() - minute
	return diff >= 0 && diff < WindowMinutes
}

func parseTarget(target string) (hour, minute int, ok bool) {
	parts := strings.Split(target, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
