package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
	sharedApplication "github.com/waypointhq/waypoint/internal/shared/application"
)

// TaskInput is a task list entry as supplied by plan generation. Missing
// duration and complexity values fall back to domain defaults.
type TaskInput struct {
	Name            string
	DurationMinutes int
	Priority        int
	ComplexityScore int
}

// CreatePlanCommand creates a plan with its task list. Scheduling is a
// separate step.
type CreatePlanCommand struct {
	UserID    uuid.UUID
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Tasks     []TaskInput
}

// CreatePlanResult contains the created plan.
type CreatePlanResult struct {
	PlanID    uuid.UUID
	TaskCount int
}

// CreatePlanHandler handles the CreatePlanCommand.
type CreatePlanHandler struct {
	planRepo planningDomain.PlanRepository
	taskRepo planningDomain.TaskRepository
	uow      sharedApplication.UnitOfWork
	logger   *slog.Logger
}

// NewCreatePlanHandler creates a new CreatePlanHandler.
func NewCreatePlanHandler(
	planRepo planningDomain.PlanRepository,
	taskRepo planningDomain.TaskRepository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *CreatePlanHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreatePlanHandler{
		planRepo: planRepo,
		taskRepo: taskRepo,
		uow:      uow,
		logger:   logger,
	}
}

// Handle executes the CreatePlanCommand.
func (h *CreatePlanHandler) Handle(ctx context.Context, cmd CreatePlanCommand) (*CreatePlanResult, error) {
	plan, err := planningDomain.NewPlan(cmd.UserID, cmd.Name, cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}

	tasks := make([]planningDomain.PlanTask, 0, len(cmd.Tasks))
	for idx, input := range cmd.Tasks {
		task, err := planningDomain.NewPlanTask(plan.ID(), idx, input.Name, input.DurationMinutes, input.Priority, input.ComplexityScore)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.planRepo.Save(txCtx, plan); err != nil {
			return err
		}
		return h.taskRepo.ReplaceForPlan(txCtx, plan.ID(), tasks)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("plan created",
		"plan_id", plan.ID(),
		"user_id", cmd.UserID,
		"tasks", len(tasks),
		"start_date", plan.StartDate().Format("2006-01-02"),
		"end_date", plan.EndDate().Format("2006-01-02"),
	)

	return &CreatePlanResult{PlanID: plan.ID(), TaskCount: len(tasks)}, nil
}
