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

// PostgresPlanRepository implements PlanRepository using PostgreSQL.
type PostgresPlanRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPlanRepository creates a new PostgreSQL plan repository.
func NewPostgresPlanRepository(pool *pgxpool.Pool) *PostgresPlanRepository {
	return &PostgresPlanRepository{pool: pool}
}

func (r *PostgresPlanRepository) Save(ctx context.Context, plan *planningDomain.Plan) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `
		INSERT INTO plans (id, user_id, name, start_date, end_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`

	_, err := exec.Exec(ctx, query,
		plan.ID(),
		plan.UserID(),
		plan.Name(),
		plan.StartDate(),
		plan.EndDate(),
		string(plan.Status()),
		plan.CreatedAt(),
		plan.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

func (r *PostgresPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*planningDomain.Plan, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `
		SELECT id, user_id, name, start_date, end_date, status, created_at, updated_at
		FROM plans
		WHERE id = $1`

	plan, err := scanPlan(exec.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, planningDomain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}
	return plan, nil
}

func (r *PostgresPlanRepository) ListActive(ctx context.Context) ([]*planningDomain.Plan, error) {
	return r.listActive(ctx, `
		SELECT id, user_id, name, start_date, end_date, status, created_at, updated_at
		FROM plans
		WHERE status = 'active'
		ORDER BY created_at`)
}

func (r *PostgresPlanRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*planningDomain.Plan, error) {
	return r.listActive(ctx, `
		SELECT id, user_id, name, start_date, end_date, status, created_at, updated_at
		FROM plans
		WHERE status = 'active' AND user_id = $1
		ORDER BY created_at`, userID)
}

func (r *PostgresPlanRepository) listActive(ctx context.Context, query string, args ...any) ([]*planningDomain.Plan, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []*planningDomain.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func scanPlan(row pgx.Row) (*planningDomain.Plan, error) {
	var (
		id, userID           uuid.UUID
		name, status         string
		startDate, endDate   time.Time
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &userID, &name, &startDate, &endDate, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return planningDomain.RehydratePlan(
		id, userID, name,
		startDate, endDate,
		planningDomain.PlanStatus(status),
		createdAt, updatedAt,
	), nil
}
