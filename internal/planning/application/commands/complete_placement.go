package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
	sharedApplication "github.com/waypointhq/waypoint/internal/shared/application"
	sharedDomain "github.com/waypointhq/waypoint/internal/shared/domain"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/outbox"
)

// CompletePlacementCommand marks a scheduled block as done.
type CompletePlacementCommand struct {
	PlacementID uuid.UUID
}

// CompletePlacementHandler handles the CompletePlacementCommand.
type CompletePlacementHandler struct {
	scheduleRepo planningDomain.ScheduleRepository
	outboxRepo   outbox.Repository
	uow          sharedApplication.UnitOfWork
	logger       *slog.Logger
}

// NewCompletePlacementHandler creates a new CompletePlacementHandler.
func NewCompletePlacementHandler(
	scheduleRepo planningDomain.ScheduleRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *CompletePlacementHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompletePlacementHandler{
		scheduleRepo: scheduleRepo,
		outboxRepo:   outboxRepo,
		uow:          uow,
		logger:       logger,
	}
}

// Handle executes the CompletePlacementCommand.
func (h *CompletePlacementHandler) Handle(ctx context.Context, cmd CompletePlacementCommand) (*planningDomain.Placement, error) {
	var placement *planningDomain.Placement

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		var err error
		placement, err = h.scheduleRepo.MarkCompleted(txCtx, cmd.PlacementID)
		if err != nil {
			return err
		}

		event := planningDomain.NewPlacementCompleted(placement.PlanID, placement.ID, placement.TaskID)
		sharedApplication.ApplyEventMetadata(
			[]sharedDomain.DomainEvent{event},
			sharedApplication.NewEventMetadata(placement.UserID),
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

	h.logger.Info("placement completed",
		"placement_id", placement.ID,
		"plan_id", placement.PlanID,
		"task_id", placement.TaskID,
	)
	return placement, nil
}
