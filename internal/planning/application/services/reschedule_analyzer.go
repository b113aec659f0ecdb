package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
)

// MaxExtensionDays bounds how far a reschedule may push a plan's end date.
const MaxExtensionDays = 14

// BusySlotSource supplies externally occupied intervals for a user and date
// range: calendar events plus other plans' placements, already merged.
type BusySlotSource interface {
	BusyBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]planningDomain.BusySlot, error)
}

// RescheduleAnalyzer computes a minimal-disruption adjustment after a missed
// day. It never writes: the returned proposal stays unpersisted until the
// applier commits it.
type RescheduleAnalyzer struct {
	plans            planningDomain.PlanRepository
	tasks            planningDomain.TaskRepository
	schedule         planningDomain.ScheduleRepository
	busySource       BusySlotSource
	scheduler        *TimeBlockScheduler
	maxExtensionDays int
}

// NewRescheduleAnalyzer creates an analyzer. A non-positive maxExtensionDays
// falls back to MaxExtensionDays.
func NewRescheduleAnalyzer(
	plans planningDomain.PlanRepository,
	tasks planningDomain.TaskRepository,
	schedule planningDomain.ScheduleRepository,
	busySource BusySlotSource,
	scheduler *TimeBlockScheduler,
	maxExtensionDays int,
) *RescheduleAnalyzer {
	if maxExtensionDays <= 0 {
		maxExtensionDays = MaxExtensionDays
	}
	return &RescheduleAnalyzer{
		plans:            plans,
		tasks:            tasks,
		schedule:         schedule,
		busySource:       busySource,
		scheduler:        scheduler,
		maxExtensionDays: maxExtensionDays,
	}
}

// Analyze inspects a plan after a missed day and proposes new slots for
// every incomplete task scheduled on or after missedDate. It returns nil
// when there is nothing to reschedule. If the remaining window lacks
// capacity the plan's end date is extended one day at a time until all tasks
// fit or the extension cap is hit; tasks that still do not fit at the cap
// are reported in UnplacedTaskIDs.
func (a *RescheduleAnalyzer) Analyze(
	ctx context.Context,
	planID uuid.UUID,
	missedDate time.Time,
	now time.Time,
	workday planningDomain.WorkdayConfig,
) (*planningDomain.RescheduleProposal, error) {
	plan, err := a.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if !plan.IsActive() {
		return nil, nil
	}

	placements, err := a.schedule.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	tasks, err := a.tasks.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	taskByID := make(map[uuid.UUID]planningDomain.PlanTask, len(tasks))
	for _, task := range tasks {
		taskByID[task.ID] = task
	}

	missedDate = planningDomain.DateOnly(missedDate)
	moved, kept := splitPlacements(placements, missedDate)
	if len(moved) == 0 {
		return nil, nil
	}

	toReschedule := make([]planningDomain.PlanTask, 0, len(moved))
	oldSlots := make(map[uuid.UUID]*planningDomain.Placement, len(moved))
	for i := range moved {
		task, ok := taskByID[moved[i].TaskID]
		if !ok {
			continue
		}
		toReschedule = append(toReschedule, task)
		oldSlots[task.ID] = &moved[i]
	}
	if len(toReschedule) == 0 {
		return nil, nil
	}

	windowStart := planningDomain.DateOnly(now).AddDate(0, 0, 1)
	maxEnd := plan.EndDate().AddDate(0, 0, a.maxExtensionDays)
	busy, err := a.busySource.BusyBetween(ctx, plan.UserID(), windowStart, maxEnd)
	if err != nil {
		return nil, fmt.Errorf("load busy slots: %w", err)
	}
	crossPlan, err := a.schedule.ListByUserBetween(ctx, plan.UserID(), planID, windowStart, maxEnd)
	if err != nil {
		return nil, fmt.Errorf("load cross-plan placements: %w", err)
	}
	for _, p := range crossPlan {
		busy = append(busy, p.AsBusySlot())
	}
	for _, p := range kept {
		if planningDomain.BeforeDate(p.Date, windowStart) {
			continue
		}
		busy = append(busy, p.AsBusySlot())
	}

	var result *ScheduleResult
	daysExtended := 0
	for ext := 0; ext <= a.maxExtensionDays; ext++ {
		end := plan.EndDate().AddDate(0, 0, ext)
		if planningDomain.BeforeDate(end, windowStart) {
			continue
		}

		run, err := a.scheduler.Schedule(ScheduleRequest{
			PlanID:    planID,
			UserID:    plan.UserID(),
			Tasks:     toReschedule,
			StartDate: windowStart,
			EndDate:   end,
			Workday:   workday,
			Now:       now,
			BusySlots: busy,
		})
		if err != nil {
			return nil, fmt.Errorf("reschedule over extended window: %w", err)
		}
		result = run
		daysExtended = ext
		if len(run.UnscheduledTasks) == 0 {
			break
		}
	}
	if result == nil {
		// Even the fully extended window ended before tomorrow.
		return nil, fmt.Errorf("plan %s: no open window to reschedule into", planID)
	}

	proposal := &planningDomain.RescheduleProposal{
		PlanID:       planID,
		UserID:       plan.UserID(),
		MissedDate:   missedDate,
		DaysExtended: daysExtended,
		OldEndDate:   plan.EndDate(),
		NewEndDate:   plan.EndDate().AddDate(0, 0, daysExtended),
	}
	// The reschedule run starts at windowStart, so its day indexes restart
	// at zero. Rebase them onto the plan start so applied rows agree with
	// the original generation.
	dayOffset := planningDomain.DaysBetween(plan.StartDate(), windowStart)
	for _, placement := range result.Placements {
		placement.DayIndex += dayOffset
		proposal.Adjustments = append(proposal.Adjustments, planningDomain.TaskAdjustment{
			TaskID:  placement.TaskID,
			OldSlot: oldSlots[placement.TaskID],
			NewSlot: placement,
		})
	}
	for _, task := range result.UnscheduledTasks {
		proposal.UnplacedTaskIDs = append(proposal.UnplacedTaskIDs, task.ID)
	}
	return proposal, nil
}

// splitPlacements partitions a plan's placements into those that must move
// (incomplete, on or after the missed date) and those that keep their slot.
func splitPlacements(placements []planningDomain.Placement, missedDate time.Time) (moved, kept []planningDomain.Placement) {
	for _, p := range placements {
		if !p.Completed && !planningDomain.BeforeDate(p.Date, missedDate) {
			moved = append(moved, p)
		} else {
			kept = append(kept, p)
		}
	}
	return moved, kept
}
