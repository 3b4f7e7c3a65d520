package schedule

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, time.January, 15, hour, minute, 0, 0, time.UTC)
}

func TestDue(t *testing.T) {
	tests := []struct {
		name   string
		target string
		now    time.Time
		want   bool
	}{
		{name: "exact match", target: "05:30", now: at(5, 30), want: true},
		{name: "middle of window", target: "05:30", now: at(5, 37), want: true},
		{name: "last minute of window", target: "05:30", now: at(5, 44), want: true},
		{name: "window closed", target: "05:30", now: at(5, 45), want: false},
		{name: "one minute early", target: "05:30", now: at(5, 29), want: false},
		{name: "wrong hour", target: "05:30", now: at(6, 30), want: false},
		{name: "top of hour", target: "07:00", now: at(7, 0), want: true},
		{name: "top of hour late edge", target: "07:00", now: at(7, 14), want: true},
		{name: "top of hour closed", target: "07:00", now: at(7, 15), want: false},

		// A target near the end of an hour is only matchable by a tick
		// landing in the same hour. The next hour never fires it.
		{name: "hour boundary gap", target: "23:58", now: at(0, 3), want: false},
		{name: "hour boundary same hour", target: "23:58", now: at(23, 59), want: true},
		{name: "late target next hour", target: "06:58", now: at(7, 5), want: false},

		{name: "midnight target", target: "00:00", now: at(0, 10), want: true},
		{name: "midnight target closed", target: "00:00", now: at(0, 15), want: false},

		{name: "malformed no colon", target: "0530", now: at(5, 30), want: false},
		{name: "malformed empty", target: "", now: at(5, 30), want: false},
		{name: "malformed hour", target: "24:00", now: at(0, 0), want: false},
		{name: "malformed minute", target: "05:60", now: at(5, 59), want: false},
		{name: "malformed extra part", target: "05:30:00", now: at(5, 30), want: false},
		{name: "malformed non-numeric", target: "ab:cd", now: at(5, 30), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Due(tt.target, tt.now); got != tt.want {
				t.Errorf("Due(%q, %s) = %v, want %v", tt.target, tt.now.Format("15:04"), got, tt.want)
			}
		})
	}
}

func TestDueEveryTickObservesOnce(t *testing.T) {
	// Ticks fire at :00, :15, :30, :45. Any well-formed target inside an hour
	// must be due for exactly one of the four ticks in that hour.
	for minute := 0; minute < 60; minute++ {
		target := time.Date(2026, time.January, 15, 9, minute, 0, 0, time.UTC).Format("15:04")
		dueCount := 0
		for _, tick := range []int{0, 15, 30, 45} {
			if Due(target, at(9, tick)) {
				dueCount++
			}
		}
		if dueCount != 1 {
			t.Errorf("target %s due for %d ticks, want 1", target, dueCount)
		}
	}
}
