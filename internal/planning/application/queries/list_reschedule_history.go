package queries

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
)

// ListRescheduleHistoryQuery fetches a plan's reschedule audit log.
type ListRescheduleHistoryQuery struct {
	PlanID uuid.UUID
}

// RescheduleHistoryItem is one audit entry, newest first.
type RescheduleHistoryItem struct {
	MissedDate       string
	OldEndDate       string
	NewEndDate       string
	DaysExtended     int
	TasksRescheduled int
	Reason           string
	CreatedAt        time.Time
}

// ListRescheduleHistoryHandler handles the ListRescheduleHistoryQuery.
type ListRescheduleHistoryHandler struct {
	historyRepo planningDomain.RescheduleHistoryRepository
}

// NewListRescheduleHistoryHandler creates a new ListRescheduleHistoryHandler.
func NewListRescheduleHistoryHandler(historyRepo planningDomain.RescheduleHistoryRepository) *ListRescheduleHistoryHandler {
	return &ListRescheduleHistoryHandler{historyRepo: historyRepo}
}

// Handle executes the ListRescheduleHistoryQuery.
func (h *ListRescheduleHistoryHandler) Handle(ctx context.Context, query ListRescheduleHistoryQuery) ([]RescheduleHistoryItem, error) {
	entries, err := h.historyRepo.ListByPlan(ctx, query.PlanID)
	if err != nil {
		return nil, err
	}

	items := make([]RescheduleHistoryItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, RescheduleHistoryItem{
			MissedDate:       entry.MissedDate.Format("2006-01-02"),
			OldEndDate:       entry.OldEndDate.Format("2006-01-02"),
			NewEndDate:       entry.NewEndDate.Format("2006-01-02"),
			DaysExtended:     entry.DaysExtended,
			TasksRescheduled: entry.TasksRescheduled,
			Reason:           entry.Reason,
			CreatedAt:        entry.CreatedAt,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}
