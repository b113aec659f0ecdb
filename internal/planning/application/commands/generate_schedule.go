package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/waypointhq/waypoint/internal/planning/application/services"
	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
	sharedApplication "github.com/waypointhq/waypoint/internal/shared/application"
	sharedDomain "github.com/waypointhq/waypoint/internal/shared/domain"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/locks"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/outbox"
)

// ErrPlanNotActive is returned when scheduling a completed or archived plan.
var ErrPlanNotActive = errors.New("plan is not active")

// WorkdaySource supplies per-user workday settings.
type WorkdaySource interface {
	WorkdayFor(ctx context.Context, userID uuid.UUID) (planningDomain.WorkdayConfig, error)
}

// GenerateScheduleCommand regenerates a plan's full schedule. A zero Now
// means the wall clock.
type GenerateScheduleCommand struct {
	PlanID uuid.UUID
	Now    time.Time
}

// GenerateScheduleResult contains the regenerated schedule.
type GenerateScheduleResult struct {
	PlanID              uuid.UUID
	Placements          []planningDomain.Placement
	UnscheduledTasks    []planningDomain.PlanTask
	TotalScheduledHours float64
}

// GenerateScheduleHandler handles the GenerateScheduleCommand. Regeneration
// deletes and rewrites every placement of the plan; the scheduler is
// deterministic, so rerunning over unchanged inputs rewrites the same rows.
type GenerateScheduleHandler struct {
	planRepo     planningDomain.PlanRepository
	taskRepo     planningDomain.TaskRepository
	scheduleRepo planningDomain.ScheduleRepository
	busySource   services.BusySlotSource
	workdays     WorkdaySource
	scheduler    *services.TimeBlockScheduler
	outboxRepo   outbox.Repository
	uow          sharedApplication.UnitOfWork
	locker       locks.PlanLocker
	logger       *slog.Logger
}

// NewGenerateScheduleHandler creates a new GenerateScheduleHandler.
func NewGenerateScheduleHandler(
	planRepo planningDomain.PlanRepository,
	taskRepo planningDomain.TaskRepository,
	scheduleRepo planningDomain.ScheduleRepository,
	busySource services.BusySlotSource,
	workdays WorkdaySource,
	scheduler *services.TimeBlockScheduler,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	locker locks.PlanLocker,
	logger *slog.Logger,
) *GenerateScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateScheduleHandler{
		planRepo:     planRepo,
		taskRepo:     taskRepo,
		scheduleRepo: scheduleRepo,
		busySource:   busySource,
		workdays:     workdays,
		scheduler:    scheduler,
		outboxRepo:   outboxRepo,
		uow:          uow,
		locker:       locker,
		logger:       logger,
	}
}

// Handle executes the GenerateScheduleCommand.
func (h *GenerateScheduleHandler) Handle(ctx context.Context, cmd GenerateScheduleCommand) (*GenerateScheduleResult, error) {
	release, err := h.locker.Acquire(ctx, cmd.PlanID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}

	plan, err := h.planRepo.FindByID(ctx, cmd.PlanID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if !plan.IsActive() {
		return nil, ErrPlanNotActive
	}

	workday, err := h.workdays.WorkdayFor(ctx, plan.UserID())
	if err != nil {
		return nil, fmt.Errorf("load workday settings: %w", err)
	}
	tasks, err := h.taskRepo.ListByPlan(ctx, cmd.PlanID)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	busy, err := h.collectBusy(ctx, plan, now)
	if err != nil {
		return nil, err
	}

	run, err := h.scheduler.Schedule(services.ScheduleRequest{
		PlanID:    plan.ID(),
		UserID:    plan.UserID(),
		Tasks:     tasks,
		StartDate: plan.StartDate(),
		EndDate:   plan.EndDate(),
		Workday:   workday,
		Now:       now,
		BusySlots: busy,
	})
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.scheduleRepo.ReplaceForPlan(txCtx, plan.ID(), run.Placements); err != nil {
			return err
		}

		event := planningDomain.NewScheduleGenerated(plan.ID(), len(run.Placements), len(run.UnscheduledTasks), run.TotalScheduledHours)
		sharedApplication.ApplyEventMetadata(
			[]sharedDomain.DomainEvent{event},
			sharedApplication.NewEventMetadata(plan.UserID()),
		)
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		return h.outboxRepo.Save(txCtx, msg)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("schedule generated",
		"plan_id", plan.ID(),
		"scheduled", len(run.Placements),
		"unscheduled", len(run.UnscheduledTasks),
		"total_hours", run.TotalScheduledHours,
	)

	return &GenerateScheduleResult{
		PlanID:              plan.ID(),
		Placements:          run.Placements,
		UnscheduledTasks:    run.UnscheduledTasks,
		TotalScheduledHours: run.TotalScheduledHours,
	}, nil
}

// collectBusy merges calendar busy time with the user's placements from
// other plans so one person is never double-booked across plans.
func (h *GenerateScheduleHandler) collectBusy(ctx context.Context, plan *planningDomain.Plan, now time.Time) ([]planningDomain.BusySlot, error) {
	busy, err := h.busySource.BusyBetween(ctx, plan.UserID(), plan.StartDate(), plan.EndDate())
	if err != nil {
		return nil, fmt.Errorf("load busy slots: %w", err)
	}
	others, err := h.scheduleRepo.ListByUserBetween(ctx, plan.UserID(), plan.ID(), plan.StartDate(), plan.EndDate())
	if err != nil {
		return nil, fmt.Errorf("load cross-plan placements: %w", err)
	}
	for _, p := range others {
		busy = append(busy, p.AsBusySlot())
	}
	return busy, nil
}
