package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/waypointhq/waypoint/internal/planning/application/services"
	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
)

// AnalyzeMissedDayCommand asks for a reschedule proposal after a missed day.
// A zero Now means the wall clock.
type AnalyzeMissedDayCommand struct {
	PlanID     uuid.UUID
	MissedDate time.Time
	Now        time.Time
}

// AnalyzeMissedDayHandler handles the AnalyzeMissedDayCommand. It is
// read-only: the proposal it returns is discarded unless applied.
type AnalyzeMissedDayHandler struct {
	planRepo planningDomain.PlanRepository
	workdays WorkdaySource
	analyzer *services.RescheduleAnalyzer
	logger   *slog.Logger
}

// NewAnalyzeMissedDayHandler creates a new AnalyzeMissedDayHandler.
func NewAnalyzeMissedDayHandler(
	planRepo planningDomain.PlanRepository,
	workdays WorkdaySource,
	analyzer *services.RescheduleAnalyzer,
	logger *slog.Logger,
) *AnalyzeMissedDayHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeMissedDayHandler{
		planRepo: planRepo,
		workdays: workdays,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Handle executes the AnalyzeMissedDayCommand. It returns a nil proposal
// when nothing needs rescheduling.
func (h *AnalyzeMissedDayHandler) Handle(ctx context.Context, cmd AnalyzeMissedDayCommand) (*planningDomain.RescheduleProposal, error) {
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}

	plan, err := h.planRepo.FindByID(ctx, cmd.PlanID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	workday, err := h.workdays.WorkdayFor(ctx, plan.UserID())
	if err != nil {
		return nil, fmt.Errorf("load workday settings: %w", err)
	}

	proposal, err := h.analyzer.Analyze(ctx, cmd.PlanID, cmd.MissedDate, now, workday)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		h.logger.Info("nothing to reschedule",
			"plan_id", cmd.PlanID,
			"missed_date", cmd.MissedDate.Format("2006-01-02"),
		)
		return nil, nil
	}

	h.logger.Info("reschedule analyzed",
		"plan_id", cmd.PlanID,
		"missed_date", cmd.MissedDate.Format("2006-01-02"),
		"tasks", len(proposal.Adjustments),
		"days_extended", proposal.DaysExtended,
		"unplaced", len(proposal.UnplacedTaskIDs),
	)
	return proposal, nil
}
