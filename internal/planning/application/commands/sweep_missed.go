package commands

import (
	"context"
	"log/slog"
	"time"

	sharedApplication "github.com/waypointhq/waypoint/internal/shared/application"
	sharedDomain "github.com/waypointhq/waypoint/internal/shared/domain"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/outbox"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
)

// SweepMissedDaysCommand checks every active plan for incomplete placements
// on a given day and reschedules them. A zero Date means yesterday.
type SweepMissedDaysCommand struct {
	Date time.Time
	Now  time.Time
}

// SweepMissedDaysResult summarizes a sweep run.
type SweepMissedDaysResult struct {
	PlansChecked int
	PlansMissed  int
	PlansApplied int
	Failures     int
}

// SweepMissedDaysHandler runs the nightly missed-day sweep: detect, analyze
// and apply per plan. A failing plan is logged and skipped so one broken
// plan cannot stall the sweep.
type SweepMissedDaysHandler struct {
	planRepo     planningDomain.PlanRepository
	scheduleRepo planningDomain.ScheduleRepository
	analyze      *AnalyzeMissedDayHandler
	apply        *ApplyRescheduleHandler
	outboxRepo   outbox.Repository
	uow          sharedApplication.UnitOfWork
	logger       *slog.Logger
}

// NewSweepMissedDaysHandler creates a new SweepMissedDaysHandler.
func NewSweepMissedDaysHandler(
	planRepo planningDomain.PlanRepository,
	scheduleRepo planningDomain.ScheduleRepository,
	analyze *AnalyzeMissedDayHandler,
	apply *ApplyRescheduleHandler,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *SweepMissedDaysHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepMissedDaysHandler{
		planRepo:     planRepo,
		scheduleRepo: scheduleRepo,
		analyze:      analyze,
		apply:        apply,
		outboxRepo:   outboxRepo,
		uow:          uow,
		logger:       logger,
	}
}

// Handle executes the SweepMissedDaysCommand.
func (h *SweepMissedDaysHandler) Handle(ctx context.Context, cmd SweepMissedDaysCommand) (*SweepMissedDaysResult, error) {
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	date := cmd.Date
	if date.IsZero() {
		date = now.AddDate(0, 0, -1)
	}
	date = planningDomain.DateOnly(date)

	plans, err := h.planRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepMissedDaysResult{PlansChecked: len(plans)}
	for _, plan := range plans {
		missed, err := h.incompleteOn(ctx, plan, date)
		if err != nil {
			result.Failures++
			h.logger.Error("missed-day check failed", "plan_id", plan.ID(), "error", err)
			continue
		}
		if missed == 0 {
			continue
		}
		result.PlansMissed++

		if err := h.recordMissedDay(ctx, plan, date, missed); err != nil {
			h.logger.Error("missed-day event failed", "plan_id", plan.ID(), "error", err)
		}

		proposal, err := h.analyze.Handle(ctx, AnalyzeMissedDayCommand{
			PlanID:     plan.ID(),
			MissedDate: date,
			Now:        now,
		})
		if err != nil {
			result.Failures++
			h.logger.Error("missed-day analysis failed", "plan_id", plan.ID(), "error", err)
			continue
		}
		if proposal == nil {
			continue
		}

		if _, err := h.apply.Handle(ctx, ApplyRescheduleCommand{Proposal: proposal, Reason: "missed day sweep"}); err != nil {
			result.Failures++
			h.logger.Error("missed-day apply failed", "plan_id", plan.ID(), "error", err)
			continue
		}
		result.PlansApplied++
	}

	h.logger.Info("missed-day sweep finished",
		"date", date.Format("2006-01-02"),
		"checked", result.PlansChecked,
		"missed", result.PlansMissed,
		"applied", result.PlansApplied,
		"failures", result.Failures,
	)
	return result, nil
}

func (h *SweepMissedDaysHandler) incompleteOn(ctx context.Context, plan *planningDomain.Plan, date time.Time) (int, error) {
	placements, err := h.scheduleRepo.ListByPlan(ctx, plan.ID())
	if err != nil {
		return 0, err
	}
	count := 0
	for _, p := range placements {
		if !p.Completed && planningDomain.SameDate(p.Date, date) {
			count++
		}
	}
	return count, nil
}

func (h *SweepMissedDaysHandler) recordMissedDay(ctx context.Context, plan *planningDomain.Plan, date time.Time, missed int) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		event := planningDomain.NewMissedDayDetected(plan.ID(), date, missed)
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
}
