package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
	sharedPersistence "github.com/waypointhq/waypoint/internal/shared/infrastructure/persistence"
)

// PostgresTaskRepository implements TaskRepository using PostgreSQL.
type PostgresTaskRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTaskRepository creates a new PostgreSQL task repository.
func NewPostgresTaskRepository(pool *pgxpool.Pool) *PostgresTaskRepository {
	return &PostgresTaskRepository{pool: pool}
}

func (r *PostgresTaskRepository) ReplaceForPlan(ctx context.Context, planID uuid.UUID, tasks []planningDomain.PlanTask) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	if _, err := exec.Exec(ctx, `DELETE FROM plan_tasks WHERE plan_id = $1`, planID); err != nil {
		return fmt.Errorf("delete plan tasks: %w", err)
	}

	query := `
		INSERT INTO plan_tasks (id, plan_id, idx, name, duration_minutes, priority, complexity_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now().UTC()
	for _, task := range tasks {
		_, err := exec.Exec(ctx, query,
			task.ID, planID, task.Idx, task.Name,
			task.DurationMinutes, task.Priority, task.ComplexityScore, now,
		)
		if err != nil {
			return fmt.Errorf("insert task %s: %w", task.ID, err)
		}
	}
	return nil
}

func (r *PostgresTaskRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]planningDomain.PlanTask, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `
		SELECT id, plan_id, idx, name, duration_minutes, priority, complexity_score
		FROM plan_tasks
		WHERE plan_id = $1
		ORDER BY idx`

	rows, err := exec.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []planningDomain.PlanTask
	for rows.Next() {
		var task planningDomain.PlanTask
		err := rows.Scan(
			&task.ID, &task.PlanID, &task.Idx, &task.Name,
			&task.DurationMinutes, &task.Priority, &task.ComplexityScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
