package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
	sharedPersistence "github.com/waypointhq/waypoint/internal/shared/infrastructure/persistence"
)

// PostgresHistoryRepository implements RescheduleHistoryRepository using
// PostgreSQL.
type PostgresHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresHistoryRepository creates a new PostgreSQL history repository.
func NewPostgresHistoryRepository(pool *pgxpool.Pool) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{pool: pool}
}

func (r *PostgresHistoryRepository) Append(ctx context.Context, entry planningDomain.RescheduleEntry) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `
		INSERT INTO reschedule_history (id, plan_id, user_id, missed_date, old_end_date, new_end_date,
			days_extended, tasks_rescheduled, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := exec.Exec(ctx, query,
		entry.ID, entry.PlanID, entry.UserID,
		entry.MissedDate, entry.OldEndDate, entry.NewEndDate,
		entry.DaysExtended, entry.TasksRescheduled, entry.Reason, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (r *PostgresHistoryRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]planningDomain.RescheduleEntry, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `
		SELECT id, plan_id, user_id, missed_date, old_end_date, new_end_date,
			days_extended, tasks_rescheduled, reason, created_at
		FROM reschedule_history
		WHERE plan_id = $1
		ORDER BY created_at DESC`

	rows, err := exec.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []planningDomain.RescheduleEntry
	for rows.Next() {
		var entry planningDomain.RescheduleEntry
		err := rows.Scan(
			&entry.ID, &entry.PlanID, &entry.UserID,
			&entry.MissedDate, &entry.OldEndDate, &entry.NewEndDate,
			&entry.DaysExtended, &entry.TasksRescheduled, &entry.Reason, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
