package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/waypointhq/waypoint/internal/shared/domain"
)

const (
	AggregateType = "Plan"

	RoutingKeyScheduleGenerated  = "planning.schedule.generated"
	RoutingKeyPlanRescheduled    = "planning.plan.rescheduled"
	RoutingKeyMissedDayDetected  = "planning.plan.missed-day"
	RoutingKeyPlacementCompleted = "planning.placement.completed"
)

// ScheduleGenerated is emitted when a plan's schedule is (re)generated.
type ScheduleGenerated struct {
	sharedDomain.BaseEvent
	PlanID           uuid.UUID `json:"plan_id"`
	ScheduledCount   int       `json:"scheduled_count"`
	UnscheduledCount int       `json:"unscheduled_count"`
	TotalHours       float64   `json:"total_hours"`
}

// NewScheduleGenerated creates a ScheduleGenerated event.
func NewScheduleGenerated(planID uuid.UUID, scheduled, unscheduled int, totalHours float64) *ScheduleGenerated {
	return &ScheduleGenerated{
		BaseEvent:        sharedDomain.NewBaseEvent(planID, AggregateType, RoutingKeyScheduleGenerated),
		PlanID:           planID,
		ScheduledCount:   scheduled,
		UnscheduledCount: unscheduled,
		TotalHours:       totalHours,
	}
}

// PlanRescheduled is emitted when a reschedule proposal is applied.
type PlanRescheduled struct {
	sharedDomain.BaseEvent
	PlanID           uuid.UUID `json:"plan_id"`
	MissedDate       time.Time `json:"missed_date"`
	DaysExtended     int       `json:"days_extended"`
	NewEndDate       time.Time `json:"new_end_date"`
	TasksRescheduled int       `json:"tasks_rescheduled"`
}

// NewPlanRescheduled creates a PlanRescheduled event.
func NewPlanRescheduled(planID uuid.UUID, missedDate time.Time, daysExtended int, newEndDate time.Time, tasks int) *PlanRescheduled {
	return &PlanRescheduled{
		BaseEvent:        sharedDomain.NewBaseEvent(planID, AggregateType, RoutingKeyPlanRescheduled),
		PlanID:           planID,
		MissedDate:       missedDate,
		DaysExtended:     daysExtended,
		NewEndDate:       newEndDate,
		TasksRescheduled: tasks,
	}
}

// MissedDayDetected is emitted by the nightly sweep when a day's placements
// were not completed.
type MissedDayDetected struct {
	sharedDomain.BaseEvent
	PlanID          uuid.UUID `json:"plan_id"`
	MissedDate      time.Time `json:"missed_date"`
	IncompleteTasks int       `json:"incomplete_tasks"`
}

// NewMissedDayDetected creates a MissedDayDetected event.
func NewMissedDayDetected(planID uuid.UUID, missedDate time.Time, incompleteTasks int) *MissedDayDetected {
	return &MissedDayDetected{
		BaseEvent:       sharedDomain.NewBaseEvent(planID, AggregateType, RoutingKeyMissedDayDetected),
		PlanID:          planID,
		MissedDate:      missedDate,
		IncompleteTasks: incompleteTasks,
	}
}

// PlacementCompleted is emitted when a placement is marked done.
type PlacementCompleted struct {
	sharedDomain.BaseEvent
	PlanID      uuid.UUID `json:"plan_id"`
	PlacementID uuid.UUID `json:"placement_id"`
	TaskID      uuid.UUID `json:"task_id"`
}

// NewPlacementCompleted creates a PlacementCompleted event.
func NewPlacementCompleted(planID, placementID, taskID uuid.UUID) *PlacementCompleted {
	return &PlacementCompleted{
		BaseEvent:   sharedDomain.NewBaseEvent(planID, AggregateType, RoutingKeyPlacementCompleted),
		PlanID:      planID,
		PlacementID: placementID,
		TaskID:      taskID,
	}
}
