package domain

import (
	"errors"
	"time"
)

var ErrInvalidBusySlot = errors.New("busy slot end must be after start")

// BusySlot is an interval the scheduler must avoid: a calendar event, a
// lunch break, or another plan's placement. All sources look the same here.
type BusySlot struct {
	Date      time.Time // local midnight
	StartTime string    // HH:MM
	EndTime   string    // HH:MM
}

// NewBusySlot builds a slot from a date and minute-of-day bounds.
func NewBusySlot(date time.Time, startMinute, endMinute int) (BusySlot, error) {
	if endMinute <= startMinute {
		return BusySlot{}, ErrInvalidBusySlot
	}
	return BusySlot{
		Date:      DateOnly(date),
		StartTime: FormatMinute(startMinute),
		EndTime:   FormatMinute(endMinute),
	}, nil
}

// Interval returns the slot bounds in minutes since midnight.
func (b BusySlot) Interval() (Interval, error) {
	start, err := MinuteOfDay(b.StartTime)
	if err != nil {
		return Interval{}, err
	}
	end, err := MinuteOfDay(b.EndTime)
	if err != nil {
		return Interval{}, err
	}
	if end <= start {
		return Interval{}, ErrInvalidBusySlot
	}
	return Interval{Start: start, End: end}, nil
}
