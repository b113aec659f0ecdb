package domain

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNonPositiveDuration = errors.New("task duration must be positive")
	ErrEmptyTaskName       = errors.New("task name cannot be empty")
)

// DefaultTaskDurationMinutes is used when a task arrives without an estimate.
const DefaultTaskDurationMinutes = 60

// PlanTask is a scheduling input produced by plan generation. Tasks are not
// split: each occupies one contiguous interval within a single day.
type PlanTask struct {
	ID              uuid.UUID
	PlanID          uuid.UUID
	Idx             int
	Name            string
	DurationMinutes int
	Priority        int
	ComplexityScore int
}

// NewPlanTask creates a validated task. A zero duration falls back to the
// default estimate; a zero complexity is derived from priority.
func NewPlanTask(planID uuid.UUID, idx int, name string, durationMinutes, priority, complexityScore int) (PlanTask, error) {
	if name == "" {
		return PlanTask{}, ErrEmptyTaskName
	}
	if durationMinutes == 0 {
		durationMinutes = DefaultTaskDurationMinutes
	}
	if durationMinutes < 0 {
		return PlanTask{}, ErrNonPositiveDuration
	}
	if priority < 1 {
		priority = 1
	}
	if complexityScore == 0 {
		complexityScore = DeriveComplexity(priority)
	}

	return PlanTask{
		ID:              uuid.New(),
		PlanID:          planID,
		Idx:             idx,
		Name:            name,
		DurationMinutes: durationMinutes,
		Priority:        priority,
		ComplexityScore: complexityScore,
	}, nil
}

// DeriveComplexity maps a priority to a complexity score when none was
// provided: (5 - priority) * 2, clamped to the 1-10 scale.
func DeriveComplexity(priority int) int {
	score := (5 - priority) * 2
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}

// Validate checks invariants on a rehydrated or externally built task.
func (t PlanTask) Validate() error {
	if t.Name == "" {
		return ErrEmptyTaskName
	}
	if t.DurationMinutes <= 0 {
		return ErrNonPositiveDuration
	}
	return nil
}
