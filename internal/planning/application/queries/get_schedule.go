package queries

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
)

// GetScheduleQuery fetches a plan's current schedule.
type GetScheduleQuery struct {
	PlanID uuid.UUID
}

// ScheduleDay groups a day's placements for display.
type ScheduleDay struct {
	Date       string
	Placements []PlacementView
}

// PlacementView is a read model of one scheduled block.
type PlacementView struct {
	PlacementID     uuid.UUID
	TaskID          uuid.UUID
	TaskName        string
	StartTime       string
	EndTime         string
	DurationMinutes int
	Completed       bool
}

// GetScheduleResult is the full schedule read model.
type GetScheduleResult struct {
	PlanID    uuid.UUID
	PlanName  string
	StartDate string
	EndDate   string
	Status    planningDomain.PlanStatus
	Days      []ScheduleDay
	// Unscheduled lists tasks without a placement, the overflow the
	// scheduler could not fit.
	Unscheduled []string
}

// GetScheduleHandler handles the GetScheduleQuery.
type GetScheduleHandler struct {
	planRepo     planningDomain.PlanRepository
	taskRepo     planningDomain.TaskRepository
	scheduleRepo planningDomain.ScheduleRepository
}

// NewGetScheduleHandler creates a new GetScheduleHandler.
func NewGetScheduleHandler(
	planRepo planningDomain.PlanRepository,
	taskRepo planningDomain.TaskRepository,
	scheduleRepo planningDomain.ScheduleRepository,
) *GetScheduleHandler {
	return &GetScheduleHandler{
		planRepo:     planRepo,
		taskRepo:     taskRepo,
		scheduleRepo: scheduleRepo,
	}
}

// Handle executes the GetScheduleQuery.
func (h *GetScheduleHandler) Handle(ctx context.Context, query GetScheduleQuery) (*GetScheduleResult, error) {
	plan, err := h.planRepo.FindByID(ctx, query.PlanID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	tasks, err := h.taskRepo.ListByPlan(ctx, query.PlanID)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	placements, err := h.scheduleRepo.ListByPlan(ctx, query.PlanID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	nameByID := make(map[uuid.UUID]string, len(tasks))
	for _, task := range tasks {
		nameByID[task.ID] = task.Name
	}

	byDay := make(map[string][]PlacementView)
	placed := make(map[uuid.UUID]bool, len(placements))
	for _, p := range placements {
		placed[p.TaskID] = true
		key := p.Date.Format("2006-01-02")
		byDay[key] = append(byDay[key], PlacementView{
			PlacementID:     p.ID,
			TaskID:          p.TaskID,
			TaskName:        nameByID[p.TaskID],
			StartTime:       p.StartTime,
			EndTime:         p.EndTime,
			DurationMinutes: p.DurationMinutes,
			Completed:       p.Completed,
		})
	}

	days := make([]ScheduleDay, 0, len(byDay))
	for date, views := range byDay {
		sort.Slice(views, func(i, j int) bool { return views[i].StartTime < views[j].StartTime })
		days = append(days, ScheduleDay{Date: date, Placements: views})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	result := &GetScheduleResult{
		PlanID:    plan.ID(),
		PlanName:  plan.Name(),
		StartDate: plan.StartDate().Format("2006-01-02"),
		EndDate:   plan.EndDate().Format("2006-01-02"),
		Status:    plan.Status(),
		Days:      days,
	}
	for _, task := range tasks {
		if !placed[task.ID] {
			result.Unscheduled = append(result.Unscheduled, task.Name)
		}
	}
	return result, nil
}
