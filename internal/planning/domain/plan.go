package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/waypointhq/waypoint/internal/shared/domain"
)

var (
	ErrInvalidDateRange = errors.New("end date must not be before start date")
	ErrEmptyPlanName    = errors.New("plan name cannot be empty")
)

// PlanStatus is the lifecycle state of a plan.
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusArchived  PlanStatus = "archived"
)

// Plan is a goal plan: a named multi-day window whose tasks are placed into
// time blocks by the scheduler.
type Plan struct {
	sharedDomain.BaseAggregateRoot
	userID    uuid.UUID
	name      string
	startDate time.Time
	endDate   time.Time
	status    PlanStatus
}

// NewPlan creates a plan over an inclusive date window. Dates are normalized
// to local midnight.
func NewPlan(userID uuid.UUID, name string, startDate, endDate time.Time) (*Plan, error) {
	if name == "" {
		return nil, ErrEmptyPlanName
	}
	startDate = DateOnly(startDate)
	endDate = DateOnly(endDate)
	if endDate.Before(startDate) {
		return nil, ErrInvalidDateRange
	}

	return &Plan{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		userID:            userID,
		name:              name,
		startDate:         startDate,
		endDate:           endDate,
		status:            PlanStatusActive,
	}, nil
}

func (p *Plan) UserID() uuid.UUID    { return p.userID }
func (p *Plan) Name() string         { return p.name }
func (p *Plan) StartDate() time.Time { return p.startDate }
func (p *Plan) EndDate() time.Time   { return p.endDate }
func (p *Plan) Status() PlanStatus   { return p.status }

// IsActive reports whether the plan still accepts scheduling.
func (p *Plan) IsActive() bool {
	return p.status == PlanStatusActive
}

// ExtendEndDate moves the plan end date forward by the given number of days.
func (p *Plan) ExtendEndDate(days int) {
	if days <= 0 {
		return
	}
	p.endDate = p.endDate.AddDate(0, 0, days)
	p.Touch()
}

// Complete marks the plan as completed.
func (p *Plan) Complete() {
	p.status = PlanStatusCompleted
	p.Touch()
}

// Archive marks the plan as archived.
func (p *Plan) Archive() {
	p.status = PlanStatusArchived
	p.Touch()
}

// DayCount returns the number of days in the inclusive window.
func (p *Plan) DayCount() int {
	return int(p.endDate.Sub(p.startDate).Hours()/24) + 1
}

// RehydratePlan recreates a plan from persisted state.
func RehydratePlan(
	id uuid.UUID,
	userID uuid.UUID,
	name string,
	startDate, endDate time.Time,
	status PlanStatus,
	createdAt, updatedAt time.Time,
) *Plan {
	return &Plan{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		),
		userID:    userID,
		name:      name,
		startDate: DateOnly(startDate),
		endDate:   DateOnly(endDate),
		status:    status,
	}
}
