package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrPlacementNotFound = errors.New("placement not found")
)

// PlanRepository persists plan aggregates.
type PlanRepository interface {
	Save(ctx context.Context, plan *Plan) error
	FindByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	ListActive(ctx context.Context) ([]*Plan, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*Plan, error)
}

// TaskRepository reads and writes the tasks belonging to a plan.
type TaskRepository interface {
	ReplaceForPlan(ctx context.Context, planID uuid.UUID, tasks []PlanTask) error
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]PlanTask, error)
}

// ScheduleRepository persists placement rows.
type ScheduleRepository interface {
	// ReplaceForPlan atomically swaps a plan's placements for a new set.
	ReplaceForPlan(ctx context.Context, planID uuid.UUID, placements []Placement) error
	// ReplaceTasks swaps only the placements of the given tasks, leaving the
	// rest of the plan's schedule untouched.
	ReplaceTasks(ctx context.Context, planID uuid.UUID, taskIDs []uuid.UUID, placements []Placement) error
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]Placement, error)
	// ListByUserBetween returns a user's placements across all plans except
	// the excluded one, restricted to the inclusive date range.
	ListByUserBetween(ctx context.Context, userID, excludePlanID uuid.UUID, from, to time.Time) ([]Placement, error)
	MarkCompleted(ctx context.Context, placementID uuid.UUID) (*Placement, error)
}

// RescheduleHistoryRepository stores the append-only reschedule audit log.
type RescheduleHistoryRepository interface {
	Append(ctx context.Context, entry RescheduleEntry) error
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]RescheduleEntry, error)
}
