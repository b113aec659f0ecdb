package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
	sharedApplication "github.com/waypointhq/waypoint/internal/shared/application"
	sharedDomain "github.com/waypointhq/waypoint/internal/shared/domain"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/locks"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/outbox"
)

// ErrEmptyProposal is returned when applying a proposal with no adjustments.
var ErrEmptyProposal = errors.New("reschedule proposal has no adjustments")

// ErrStaleProposal is returned when the plan changed after the proposal was
// produced, usually because a newer analysis was already applied.
var ErrStaleProposal = errors.New("reschedule proposal is stale, re-run the analysis")

// ApplyRescheduleCommand commits an approved proposal.
type ApplyRescheduleCommand struct {
	Proposal *planningDomain.RescheduleProposal
	Reason   string
}

// ApplyRescheduleHandler handles the ApplyRescheduleCommand. The end-date
// extension, the placement rewrite, the history entry and the outbox event
// commit in one transaction; there is no partially applied state.
type ApplyRescheduleHandler struct {
	planRepo     planningDomain.PlanRepository
	scheduleRepo planningDomain.ScheduleRepository
	historyRepo  planningDomain.RescheduleHistoryRepository
	outboxRepo   outbox.Repository
	uow          sharedApplication.UnitOfWork
	locker       locks.PlanLocker
	logger       *slog.Logger
}

// NewApplyRescheduleHandler creates a new ApplyRescheduleHandler.
func NewApplyRescheduleHandler(
	planRepo planningDomain.PlanRepository,
	scheduleRepo planningDomain.ScheduleRepository,
	historyRepo planningDomain.RescheduleHistoryRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	locker locks.PlanLocker,
	logger *slog.Logger,
) *ApplyRescheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplyRescheduleHandler{
		planRepo:     planRepo,
		scheduleRepo: scheduleRepo,
		historyRepo:  historyRepo,
		outboxRepo:   outboxRepo,
		uow:          uow,
		locker:       locker,
		logger:       logger,
	}
}

// Handle executes the ApplyRescheduleCommand.
func (h *ApplyRescheduleHandler) Handle(ctx context.Context, cmd ApplyRescheduleCommand) (*planningDomain.RescheduleEntry, error) {
	proposal := cmd.Proposal
	if proposal == nil || len(proposal.Adjustments) == 0 {
		return nil, ErrEmptyProposal
	}

	release, err := h.locker.Acquire(ctx, proposal.PlanID)
	if err != nil {
		return nil, err
	}
	defer release()

	entry := planningDomain.RescheduleEntry{
		ID:               uuid.New(),
		PlanID:           proposal.PlanID,
		UserID:           proposal.UserID,
		MissedDate:       proposal.MissedDate,
		OldEndDate:       proposal.OldEndDate,
		NewEndDate:       proposal.NewEndDate,
		DaysExtended:     proposal.DaysExtended,
		TasksRescheduled: len(proposal.Adjustments),
		Reason:           cmd.Reason,
		CreatedAt:        time.Now().UTC(),
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		plan, err := h.planRepo.FindByID(txCtx, proposal.PlanID)
		if err != nil {
			return fmt.Errorf("load plan: %w", err)
		}
		if !planningDomain.SameDate(plan.EndDate(), proposal.OldEndDate) {
			return ErrStaleProposal
		}
		if proposal.DaysExtended > 0 {
			plan.ExtendEndDate(proposal.DaysExtended)
			if err := h.planRepo.Save(txCtx, plan); err != nil {
				return fmt.Errorf("extend plan: %w", err)
			}
		}

		if err := h.scheduleRepo.ReplaceTasks(txCtx, proposal.PlanID, proposal.TaskIDs(), proposal.NewPlacements()); err != nil {
			return fmt.Errorf("rewrite placements: %w", err)
		}
		if err := h.historyRepo.Append(txCtx, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		event := planningDomain.NewPlanRescheduled(
			proposal.PlanID,
			proposal.MissedDate,
			proposal.DaysExtended,
			proposal.NewEndDate,
			len(proposal.Adjustments),
		)
		sharedApplication.ApplyEventMetadata(
			[]sharedDomain.DomainEvent{event},
			sharedApplication.NewEventMetadata(proposal.UserID),
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

	h.logger.Info("reschedule applied",
		"plan_id", proposal.PlanID,
		"days_extended", proposal.DaysExtended,
		"tasks_rescheduled", len(proposal.Adjustments),
		"new_end_date", proposal.NewEndDate.Format("2006-01-02"),
	)
	return &entry, nil
}
