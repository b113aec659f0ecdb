package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlacementStatus is the lifecycle state of a placement row.
type PlacementStatus string

const (
	PlacementStatusScheduled PlacementStatus = "scheduled"
)

// Placement is a concrete (task, date, start, end) assignment produced by the
// scheduler and persisted as a schedule row.
type Placement struct {
	ID              uuid.UUID
	PlanID          uuid.UUID
	TaskID          uuid.UUID
	UserID          uuid.UUID
	DayIndex        int // 0-based offset from the plan start date
	Date            time.Time
	StartTime       string // HH:MM
	EndTime         string // HH:MM
	DurationMinutes int
	Status          PlacementStatus
	Completed       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Interval returns the placement bounds in minutes since midnight.
func (p Placement) Interval() (Interval, error) {
	start, err := MinuteOfDay(p.StartTime)
	if err != nil {
		return Interval{}, err
	}
	end, err := MinuteOfDay(p.EndTime)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

// AsBusySlot converts a persisted placement into scheduler busy input, used
// for cross-plan conflict avoidance.
func (p Placement) AsBusySlot() BusySlot {
	return BusySlot{
		Date:      DateOnly(p.Date),
		StartTime: p.StartTime,
		EndTime:   p.EndTime,
	}
}
