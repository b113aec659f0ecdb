package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
	sharedPersistence "github.com/waypointhq/waypoint/internal/shared/infrastructure/persistence"
)

const placementColumns = `id, plan_id, task_id, user_id, day_index, date, start_time, end_time,
	duration_minutes, status, completed, created_at, updated_at`

// PostgresScheduleRepository implements ScheduleRepository using PostgreSQL.
type PostgresScheduleRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresScheduleRepository creates a new PostgreSQL schedule repository.
func NewPostgresScheduleRepository(pool *pgxpool.Pool) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{pool: pool}
}

func (r *PostgresScheduleRepository) ReplaceForPlan(ctx context.Context, planID uuid.UUID, placements []planningDomain.Placement) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	if _, err := exec.Exec(ctx, `DELETE FROM schedule_placements WHERE plan_id = $1`, planID); err != nil {
		return fmt.Errorf("delete placements: %w", err)
	}
	return insertPlacements(ctx, exec, placements)
}

func (r *PostgresScheduleRepository) ReplaceTasks(ctx context.Context, planID uuid.UUID, taskIDs []uuid.UUID, placements []planningDomain.Placement) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `DELETE FROM schedule_placements WHERE plan_id = $1 AND task_id = ANY($2)`
	if _, err := exec.Exec(ctx, query, planID, taskIDs); err != nil {
		return fmt.Errorf("delete task placements: %w", err)
	}
	return insertPlacements(ctx, exec, placements)
}

func (r *PostgresScheduleRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]planningDomain.Placement, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `SELECT ` + placementColumns + `
		FROM schedule_placements
		WHERE plan_id = $1
		ORDER BY date, start_time`

	return queryPlacements(ctx, exec, query, planID)
}

func (r *PostgresScheduleRepository) ListByUserBetween(ctx context.Context, userID, excludePlanID uuid.UUID, from, to time.Time) ([]planningDomain.Placement, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `SELECT ` + placementColumns + `
		FROM schedule_placements
		WHERE user_id = $1 AND plan_id <> $2 AND date BETWEEN $3 AND $4
		ORDER BY date, start_time`

	return queryPlacements(ctx, exec, query, userID, excludePlanID, from, to)
}

func (r *PostgresScheduleRepository) MarkCompleted(ctx context.Context, placementID uuid.UUID) (*planningDomain.Placement, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `UPDATE schedule_placements
		SET completed = TRUE, updated_at = $2
		WHERE id = $1
		RETURNING ` + placementColumns

	placement, err := scanPlacement(exec.QueryRow(ctx, query, placementID, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, planningDomain.ErrPlacementNotFound
		}
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	return &placement, nil
}

func insertPlacements(ctx context.Context, exec sharedPersistence.DBExecutor, placements []planningDomain.Placement) error {
	query := `
		INSERT INTO schedule_placements (` + placementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	for _, p := range placements {
		_, err := exec.Exec(ctx, query,
			p.ID, p.PlanID, p.TaskID, p.UserID, p.DayIndex, p.Date,
			p.StartTime, p.EndTime, p.DurationMinutes,
			string(p.Status), p.Completed, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert placement %s: %w", p.ID, err)
		}
	}
	return nil
}

func queryPlacements(ctx context.Context, exec sharedPersistence.DBExecutor, query string, args ...any) ([]planningDomain.Placement, error) {
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	defer rows.Close()

	var placements []planningDomain.Placement
	for rows.Next() {
		placement, err := scanPlacement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		placements = append(placements, placement)
	}
	return placements, rows.Err()
}

func scanPlacement(row pgx.Row) (planningDomain.Placement, error) {
	var p planningDomain.Placement
	var status string
	err := row.Scan(
		&p.ID, &p.PlanID, &p.TaskID, &p.UserID, &p.DayIndex, &p.Date,
		&p.StartTime, &p.EndTime, &p.DurationMinutes,
		&status, &p.Completed, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return planningDomain.Placement{}, err
	}
	p.Status = planningDomain.PlacementStatus(status)
	return p, nil
}
