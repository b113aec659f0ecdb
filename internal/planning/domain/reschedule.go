package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskAdjustment pairs a task's previous slot (if any) with its proposed
// new slot.
type TaskAdjustment struct {
	TaskID  uuid.UUID
	OldSlot *Placement
	NewSlot Placement
}

// RescheduleProposal is an unpersisted suggested adjustment to a plan's
// remaining schedule following a missed day. It becomes durable only when
// applied; a newer analysis or a user rejection discards it.
type RescheduleProposal struct {
	PlanID       uuid.UUID
	UserID       uuid.UUID
	MissedDate   time.Time
	DaysExtended int
	OldEndDate   time.Time
	NewEndDate   time.Time
	Adjustments  []TaskAdjustment

	// UnplacedTaskIDs lists tasks that still did not fit when the extension
	// cap was reached. Empty on a clean analysis.
	UnplacedTaskIDs []uuid.UUID
}

// TaskIDs returns the IDs of all tasks the proposal moves.
func (p *RescheduleProposal) TaskIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Adjustments))
	for _, adj := range p.Adjustments {
		ids = append(ids, adj.TaskID)
	}
	return ids
}

// NewPlacements returns the proposed placement rows.
func (p *RescheduleProposal) NewPlacements() []Placement {
	out := make([]Placement, 0, len(p.Adjustments))
	for _, adj := range p.Adjustments {
		out = append(out, adj.NewSlot)
	}
	return out
}

// RescheduleEntry is an append-only audit record written when a proposal is
// applied.
type RescheduleEntry struct {
	ID               uuid.UUID
	PlanID           uuid.UUID
	UserID           uuid.UUID
	MissedDate       time.Time
	OldEndDate       time.Time
	NewEndDate       time.Time
	DaysExtended     int
	TasksRescheduled int
	Reason           string
	CreatedAt        time.Time
}
