package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidClock is returned for malformed HH:MM values.
var ErrInvalidClock = errors.New("invalid HH:MM time")

// SlotGranularity is the minimum placement granularity in minutes. Starts
// are never finer than a quarter hour.
const SlotGranularity = 15

// MinuteOfDay parses an "HH:MM" value into minutes since midnight. The
// value must be exactly five characters with zero-padded digits; partial
// matches and trailing garbage are rejected rather than coerced.
func MinuteOfDay(clock string) (int, error) {
	if len(clock) != 5 || clock[2] != ':' {
		return 0, ErrInvalidClock
	}
	for _, i := range [4]int{0, 1, 3, 4} {
		if clock[i] < '0' || clock[i] > '9' {
			return 0, ErrInvalidClock
		}
	}
	h := int(clock[0]-'0')*10 + int(clock[1]-'0')
	m := int(clock[3]-'0')*10 + int(clock[4]-'0')
	if h > 24 || m > 59 || (h == 24 && m != 0) {
		return 0, ErrInvalidClock
	}
	return h*60 + m, nil
}

// FormatMinute renders minutes since midnight as "HH:MM".
func FormatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// RoundUpToQuarter rounds a minute-of-day up to the next quarter hour.
func RoundUpToQuarter(minute int) int {
	rem := minute % SlotGranularity
	if rem == 0 {
		return minute
	}
	return minute + SlotGranularity - rem
}

// DateOnly truncates a timestamp to local midnight.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether two timestamps fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// BeforeDate reports whether a falls on an earlier calendar day than b.
// Like SameDate it compares wall dates, so a UTC date column and a zoned
// wall clock compare correctly.
func BeforeDate(a, b time.Time) bool {
	return DaysBetween(a, b) > 0
}

// DaysBetween returns the number of calendar days from a to b, negative
// when b is earlier. Both sides are reduced to their wall date first, so
// mixed locations and DST transitions do not skew the count.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}

// IsWeekend reports whether the date is a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Interval is a half-open [Start, End) range in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// Duration returns the interval length in minutes.
func (iv Interval) Duration() int {
	return iv.End - iv.Start
}

// Overlaps reports whether two intervals share any minute.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && iv.End > other.Start
}

// SubtractAll removes every occupied interval from the window and returns the
// remaining free intervals sorted ascending by start. Occupied intervals may
// overlap each other and extend beyond the window; they are clipped as needed.
func SubtractAll(window Interval, occupied []Interval) []Interval {
	if window.Duration() <= 0 {
		return nil
	}

	clipped := make([]Interval, 0, len(occupied))
	for _, occ := range occupied {
		if occ.End <= window.Start || occ.Start >= window.End {
			continue
		}
		start := max(occ.Start, window.Start)
		end := min(occ.End, window.End)
		if end > start {
			clipped = append(clipped, Interval{Start: start, End: end})
		}
	}
	sort.Slice(clipped, func(i, j int) bool { return clipped[i].Start < clipped[j].Start })

	free := make([]Interval, 0, len(clipped)+1)
	cursor := window.Start
	for _, occ := range clipped {
		if occ.Start > cursor {
			free = append(free, Interval{Start: cursor, End: occ.Start})
		}
		if occ.End > cursor {
			cursor = occ.End
		}
	}
	if cursor < window.End {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}
