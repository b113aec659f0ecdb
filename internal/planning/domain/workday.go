package domain

import "errors"

var (
	ErrInvalidWorkday = errors.New("workday end must be after workday start")
	ErrInvalidLunch   = errors.New("lunch window must lie within the workday")
)

// WorkdayConfig defines the daily window eligible for scheduling.
type WorkdayConfig struct {
	WorkdayStartHour   int
	WorkdayStartMinute int
	WorkdayEndHour     int
	LunchStartHour     int
	LunchEndHour       int
	AllowWeekends      bool
}

// DefaultWorkdayConfig returns the documented defaults: 09:00-17:00, lunch
// 12:00-13:00, weekends off.
func DefaultWorkdayConfig() WorkdayConfig {
	return WorkdayConfig{
		WorkdayStartHour:   9,
		WorkdayStartMinute: 0,
		WorkdayEndHour:     17,
		LunchStartHour:     12,
		LunchEndHour:       13,
		AllowWeekends:      false,
	}
}

// Validate checks the configured bounds.
func (c WorkdayConfig) Validate() error {
	start := c.WorkdayStartHour*60 + c.WorkdayStartMinute
	end := c.WorkdayEndHour * 60
	if c.WorkdayStartHour < 0 || c.WorkdayStartMinute < 0 || c.WorkdayStartMinute > 59 || c.WorkdayEndHour > 24 {
		return ErrInvalidWorkday
	}
	if end <= start {
		return ErrInvalidWorkday
	}
	if c.LunchStartHour*60 < start || c.LunchEndHour*60 > end || c.LunchEndHour < c.LunchStartHour {
		return ErrInvalidLunch
	}
	return nil
}

// DayWindow returns the schedulable window in minutes since midnight.
func (c WorkdayConfig) DayWindow() Interval {
	return Interval{
		Start: c.WorkdayStartHour*60 + c.WorkdayStartMinute,
		End:   c.WorkdayEndHour * 60,
	}
}

// LunchInterval returns the excluded lunch window. A zero-length interval
// means no lunch exclusion.
func (c WorkdayConfig) LunchInterval() Interval {
	return Interval{Start: c.LunchStartHour * 60, End: c.LunchEndHour * 60}
}
