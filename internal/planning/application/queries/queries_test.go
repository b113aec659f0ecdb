package queries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
)

type stubPlanRepo struct {
	plan *planningDomain.Plan
}

func (s *stubPlanRepo) Save(ctx context.Context, plan *planningDomain.Plan) error { return nil }

func (s *stubPlanRepo) FindByID(ctx context.Context, id uuid.UUID) (*planningDomain.Plan, error) {
	if s.plan == nil {
		return nil, planningDomain.ErrPlanNotFound
	}
	return s.plan, nil
}

func (s *stubPlanRepo) ListActive(ctx context.Context) ([]*planningDomain.Plan, error) {
	return []*planningDomain.Plan{s.plan}, nil
}

func (s *stubPlanRepo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*planningDomain.Plan, error) {
	return []*planningDomain.Plan{s.plan}, nil
}

type stubTaskRepo struct {
	tasks []planningDomain.PlanTask
}

func (s *stubTaskRepo) ReplaceForPlan(ctx context.Context, planID uuid.UUID, tasks []planningDomain.PlanTask) error {
	return nil
}

func (s *stubTaskRepo) ListByPlan(ctx context.Context, planID uuid.UUID) ([]planningDomain.PlanTask, error) {
	return s.tasks, nil
}

type stubScheduleRepo struct {
	placements []planningDomain.Placement
}

func (s *stubScheduleRepo) ReplaceForPlan(ctx context.Context, planID uuid.UUID, placements []planningDomain.Placement) error {
	return nil
}

func (s *stubScheduleRepo) ReplaceTasks(ctx context.Context, planID uuid.UUID, taskIDs []uuid.UUID, placements []planningDomain.Placement) error {
	return nil
}

func (s *stubScheduleRepo) ListByPlan(ctx context.Context, planID uuid.UUID) ([]planningDomain.Placement, error) {
	return s.placements, nil
}

func (s *stubScheduleRepo) ListByUserBetween(ctx context.Context, userID, excludePlanID uuid.UUID, from, to time.Time) ([]planningDomain.Placement, error) {
	return nil, nil
}

func (s *stubScheduleRepo) MarkCompleted(ctx context.Context, placementID uuid.UUID) (*planningDomain.Placement, error) {
	return nil, planningDomain.ErrPlacementNotFound
}

type stubHistoryRepo struct {
	entries []planningDomain.RescheduleEntry
}

func (s *stubHistoryRepo) Append(ctx context.Context, entry planningDomain.RescheduleEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubHistoryRepo) ListByPlan(ctx context.Context, planID uuid.UUID) ([]planningDomain.RescheduleEntry, error) {
	return s.entries, nil
}

func TestGetScheduleHandler(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	start := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	plan, err := planningDomain.NewPlan(userID, "launch prep", start, start.AddDate(0, 0, 1))
	require.NoError(t, err)

	taskA, err := planningDomain.NewPlanTask(plan.ID(), 0, "write draft", 60, 1, 0)
	require.NoError(t, err)
	taskB, err := planningDomain.NewPlanTask(plan.ID(), 1, "review", 60, 2, 0)
	require.NoError(t, err)
	overflow, err := planningDomain.NewPlanTask(plan.ID(), 2, "stretch goal", 60, 3, 0)
	require.NoError(t, err)

	placements := []planningDomain.Placement{
		{
			ID: uuid.New(), PlanID: plan.ID(), TaskID: taskB.ID, UserID: userID,
			Date: start.AddDate(0, 0, 1), StartTime: "09:00", EndTime: "10:00", DurationMinutes: 60,
		},
		{
			ID: uuid.New(), PlanID: plan.ID(), TaskID: taskA.ID, UserID: userID,
			Date: start, StartTime: "10:00", EndTime: "11:00", DurationMinutes: 60, Completed: true,
		},
	}

	handler := NewGetScheduleHandler(
		&stubPlanRepo{plan: plan},
		&stubTaskRepo{tasks: []planningDomain.PlanTask{taskA, taskB, overflow}},
		&stubScheduleRepo{placements: placements},
	)

	result, err := handler.Handle(ctx, GetScheduleQuery{PlanID: plan.ID()})
	require.NoError(t, err)

	assert.Equal(t, "launch prep", result.PlanName)
	require.Len(t, result.Days, 2)
	assert.Equal(t, "2026-03-02", result.Days[0].Date)
	require.Len(t, result.Days[0].Placements, 1)
	assert.Equal(t, "write draft", result.Days[0].Placements[0].TaskName)
	assert.True(t, result.Days[0].Placements[0].Completed)
	assert.Equal(t, []string{"stretch goal"}, result.Unscheduled)
}

func TestListRescheduleHistoryHandler(t *testing.T) {
	ctx := context.Background()
	planID := uuid.New()

	older := planningDomain.RescheduleEntry{
		ID: uuid.New(), PlanID: planID,
		MissedDate: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		OldEndDate: time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC),
		NewEndDate: time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		DaysExtended: 1, TasksRescheduled: 2,
		CreatedAt: time.Date(2026, time.March, 3, 0, 5, 0, 0, time.UTC),
	}
	newer := older
	newer.ID = uuid.New()
	newer.CreatedAt = older.CreatedAt.AddDate(0, 0, 1)
	newer.Reason = "missed day sweep"

	handler := NewListRescheduleHistoryHandler(&stubHistoryRepo{entries: []planningDomain.RescheduleEntry{older, newer}})

	items, err := handler.Handle(ctx, ListRescheduleHistoryQuery{PlanID: planID})
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "missed day sweep", items[0].Reason)
	assert.Equal(t, "2026-03-05", items[0].NewEndDate)
	assert.Equal(t, 1, items[1].DaysExtended)
}
