package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
)

// ScheduleRequest is the full input of a scheduling run. The scheduler is a
// pure function of this request: it reads no clock and touches no store.
type ScheduleRequest struct {
	PlanID    uuid.UUID
	UserID    uuid.UUID
	Tasks     []planningDomain.PlanTask
	StartDate time.Time // inclusive, normalized to local midnight
	EndDate   time.Time // inclusive
	Workday   planningDomain.WorkdayConfig
	Now       time.Time
	BusySlots []planningDomain.BusySlot
}

// ScheduleResult is the output of a scheduling run. Overflow is data, not an
// error: tasks that found no slot are listed in UnscheduledTasks.
type ScheduleResult struct {
	Placements          []planningDomain.Placement
	UnscheduledTasks    []planningDomain.PlanTask
	TotalScheduledHours float64
}

// TimeBlockScheduler places tasks into concrete time blocks across a window
// of days. Placement is single-pass greedy: within each day the remaining
// tasks are ordered by priority, then complexity, then author order, and the
// day's free intervals are filled front to back. A task that does not fit in
// an interval stays pending for the next interval or day. No backtracking.
type TimeBlockScheduler struct{}

// NewTimeBlockScheduler creates a scheduler.
func NewTimeBlockScheduler() *TimeBlockScheduler {
	return &TimeBlockScheduler{}
}

// Schedule computes placements for every task that fits in the window.
// Identical requests yield identical results, so a plan's schedule can be
// deleted and regenerated without drift.
func (s *TimeBlockScheduler) Schedule(req ScheduleRequest) (*ScheduleResult, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	start := planningDomain.DateOnly(req.StartDate)
	end := planningDomain.DateOnly(req.EndDate)
	nowMinute := req.Now.Hour()*60 + req.Now.Minute()

	// A single-day window or a window starting on a weekend must not end up
	// with zero capacity, so weekends become schedulable in those cases even
	// when the user disallows them.
	weekendEscape := planningDomain.SameDate(start, end) || planningDomain.IsWeekend(start)

	busyByDay, err := groupBusySlots(req.BusySlots)
	if err != nil {
		return nil, err
	}

	pending := make([]planningDomain.PlanTask, len(req.Tasks))
	copy(pending, req.Tasks)

	placements := make([]planningDomain.Placement, 0, len(req.Tasks))
	totalMinutes := 0

	dayIndex := -1
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		dayIndex++
		if len(pending) == 0 {
			break
		}
		if planningDomain.IsWeekend(date) && !req.Workday.AllowWeekends && !weekendEscape {
			continue
		}
		// Calendar-day comparison: the window dates may be UTC midnights
		// from the database while Now carries the host zone.
		if planningDomain.BeforeDate(date, req.Now) {
			continue
		}

		free := s.freeIntervals(date, req.Now, nowMinute, req.Workday, busyByDay)
		if len(free) == 0 {
			continue
		}

		// Reorder whatever is still unplaced. Harder tasks go earlier in the
		// day within a priority tier.
		orderPending(pending)

		for _, iv := range free {
			cursor := iv.Start
			remaining := pending[:0]
			for _, task := range pending {
				startMin := planningDomain.RoundUpToQuarter(cursor)
				if startMin+task.DurationMinutes > iv.End {
					remaining = append(remaining, task)
					continue
				}
				endMin := startMin + task.DurationMinutes
				placements = append(placements, s.newPlacement(req, task, dayIndex, date, startMin, endMin))
				totalMinutes += task.DurationMinutes
				cursor = endMin
			}
			pending = remaining
			if len(pending) == 0 {
				break
			}
		}
	}

	return &ScheduleResult{
		Placements:          placements,
		UnscheduledTasks:    pending,
		TotalScheduledHours: float64(totalMinutes) / 60,
	}, nil
}

func (s *TimeBlockScheduler) validate(req *ScheduleRequest) error {
	if planningDomain.BeforeDate(req.EndDate, req.StartDate) {
		return planningDomain.ErrInvalidDateRange
	}
	if err := req.Workday.Validate(); err != nil {
		return err
	}
	for _, task := range req.Tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("task %s: %w", task.ID, err)
		}
	}
	return nil
}

// freeIntervals computes a day's schedulable intervals: the workday window
// minus lunch, minus busy slots, minus everything before now when the day is
// today.
func (s *TimeBlockScheduler) freeIntervals(
	date, now time.Time,
	nowMinute int,
	workday planningDomain.WorkdayConfig,
	busyByDay map[string][]planningDomain.Interval,
) []planningDomain.Interval {
	window := workday.DayWindow()

	occupied := make([]planningDomain.Interval, 0, 4)
	if lunch := workday.LunchInterval(); lunch.Duration() > 0 {
		occupied = append(occupied, lunch)
	}
	occupied = append(occupied, busyByDay[dayKey(date)]...)
	if planningDomain.SameDate(date, now) && nowMinute > window.Start {
		occupied = append(occupied, planningDomain.Interval{Start: window.Start, End: nowMinute})
	}

	return planningDomain.SubtractAll(window, occupied)
}

func (s *TimeBlockScheduler) newPlacement(
	req ScheduleRequest,
	task planningDomain.PlanTask,
	dayIndex int,
	date time.Time,
	startMin, endMin int,
) planningDomain.Placement {
	now := time.Now().UTC()
	return planningDomain.Placement{
		ID:              uuid.New(),
		PlanID:          req.PlanID,
		TaskID:          task.ID,
		UserID:          req.UserID,
		DayIndex:        dayIndex,
		Date:            date,
		StartTime:       planningDomain.FormatMinute(startMin),
		EndTime:         planningDomain.FormatMinute(endMin),
		DurationMinutes: task.DurationMinutes,
		Status:          planningDomain.PlacementStatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// orderPending sorts tasks by priority ascending, complexity descending,
// then author order. The sort is stable so equal tasks keep their relative
// order and runs stay deterministic.
func orderPending(tasks []planningDomain.PlanTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority < tasks[j].Priority
		}
		if tasks[i].ComplexityScore != tasks[j].ComplexityScore {
			return tasks[i].ComplexityScore > tasks[j].ComplexityScore
		}
		return tasks[i].Idx < tasks[j].Idx
	})
}

func groupBusySlots(slots []planningDomain.BusySlot) (map[string][]planningDomain.Interval, error) {
	byDay := make(map[string][]planningDomain.Interval, len(slots))
	for _, slot := range slots {
		iv, err := slot.Interval()
		if err != nil {
			return nil, fmt.Errorf("busy slot on %s: %w", dayKey(slot.Date), err)
		}
		key := dayKey(slot.Date)
		byDay[key] = append(byDay[key], iv)
	}
	return byDay, nil
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
