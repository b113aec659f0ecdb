package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
	sharedPersistence "github.com/waypointhq/waypoint/internal/shared/infrastructure/persistence"
)

const dateLayout = "2006-01-02"

// SQLitePlanRepository implements PlanRepository using SQLite for local
// single-user mode. UUIDs are stored as text, dates as "2006-01-02" and
// timestamps as RFC 3339.
type SQLitePlanRepository struct {
	db *sql.DB
}

// NewSQLitePlanRepository creates a new SQLite plan repository.
func NewSQLitePlanRepository(db *sql.DB) *SQLitePlanRepository {
	return &SQLitePlanRepository{db: db}
}

func (r *SQLitePlanRepository) Save(ctx context.Context, plan *planningDomain.Plan) error {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	query := `
		INSERT INTO plans (id, user_id, name, start_date, end_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			updated_at = excluded.updated_at`

	_, err := exec.ExecContext(ctx, query,
		plan.ID().String(),
		plan.UserID().String(),
		plan.Name(),
		plan.StartDate().Format(dateLayout),
		plan.EndDate().Format(dateLayout),
		string(plan.Status()),
		plan.CreatedAt().Format(time.RFC3339),
		plan.UpdatedAt().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

func (r *SQLitePlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*planningDomain.Plan, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	row := exec.QueryRowContext(ctx, `
		SELECT id, user_id, name, start_date, end_date, status, created_at, updated_at
		FROM plans WHERE id = ?`, id.String())

	plan, err := scanSQLitePlan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, planningDomain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}
	return plan, nil
}

func (r *SQLitePlanRepository) ListActive(ctx context.Context) ([]*planningDomain.Plan, error) {
	return r.list(ctx, `
		SELECT id, user_id, name, start_date, end_date, status, created_at, updated_at
		FROM plans WHERE status = 'active' ORDER BY created_at`)
}

func (r *SQLitePlanRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*planningDomain.Plan, error) {
	return r.list(ctx, `
		SELECT id, user_id, name, start_date, end_date, status, created_at, updated_at
		FROM plans WHERE status = 'active' AND user_id = ? ORDER BY created_at`, userID.String())
}

func (r *SQLitePlanRepository) list(ctx context.Context, query string, args ...any) ([]*planningDomain.Plan, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []*planningDomain.Plan
	for rows.Next() {
		plan, err := scanSQLitePlan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func scanSQLitePlan(scan func(dest ...any) error) (*planningDomain.Plan, error) {
	var idStr, userStr, name, startStr, endStr, status, createdStr, updatedStr string
	if err := scan(&idStr, &userStr, &name, &startStr, &endStr, &status, &createdStr, &updatedStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(userStr)
	if err != nil {
		return nil, err
	}
	startDate, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return nil, err
	}
	endDate, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339, updatedStr)
	if err != nil {
		return nil, err
	}

	return planningDomain.RehydratePlan(
		id, userID, name, startDate, endDate,
		planningDomain.PlanStatus(status), createdAt, updatedAt,
	), nil
}

// SQLiteTaskRepository implements TaskRepository using SQLite.
type SQLiteTaskRepository struct {
	db *sql.DB
}

// NewSQLiteTaskRepository creates a new SQLite task repository.
func NewSQLiteTaskRepository(db *sql.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{db: db}
}

func (r *SQLiteTaskRepository) ReplaceForPlan(ctx context.Context, planID uuid.UUID, tasks []planningDomain.PlanTask) error {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM plan_tasks WHERE plan_id = ?`, planID.String()); err != nil {
		return fmt.Errorf("delete plan tasks: %w", err)
	}

	query := `
		INSERT INTO plan_tasks (id, plan_id, idx, name, duration_minutes, priority, complexity_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC().Format(time.RFC3339)
	for _, task := range tasks {
		_, err := exec.ExecContext(ctx, query,
			task.ID.String(), planID.String(), task.Idx, task.Name,
			task.DurationMinutes, task.Priority, task.ComplexityScore, now,
		)
		if err != nil {
			return fmt.Errorf("insert task %s: %w", task.ID, err)
		}
	}
	return nil
}

func (r *SQLiteTaskRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]planningDomain.PlanTask, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	rows, err := exec.QueryContext(ctx, `
		SELECT id, plan_id, idx, name, duration_minutes, priority, complexity_score
		FROM plan_tasks WHERE plan_id = ? ORDER BY idx`, planID.String())
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []planningDomain.PlanTask
	for rows.Next() {
		var task planningDomain.PlanTask
		var idStr, planStr string
		err := rows.Scan(&idStr, &planStr, &task.Idx, &task.Name,
			&task.DurationMinutes, &task.Priority, &task.ComplexityScore)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if task.ID, err = uuid.Parse(idStr); err != nil {
			return nil, err
		}
		if task.PlanID, err = uuid.Parse(planStr); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// SQLiteScheduleRepository implements ScheduleRepository using SQLite.
type SQLiteScheduleRepository struct {
	db *sql.DB
}

// NewSQLiteScheduleRepository creates a new SQLite schedule repository.
func NewSQLiteScheduleRepository(db *sql.DB) *SQLiteScheduleRepository {
	return &SQLiteScheduleRepository{db: db}
}

func (r *SQLiteScheduleRepository) ReplaceForPlan(ctx context.Context, planID uuid.UUID, placements []planningDomain.Placement) error {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM schedule_placements WHERE plan_id = ?`, planID.String()); err != nil {
		return fmt.Errorf("delete placements: %w", err)
	}
	return insertSQLitePlacements(ctx, exec, placements)
}

func (r *SQLiteScheduleRepository) ReplaceTasks(ctx context.Context, planID uuid.UUID, taskIDs []uuid.UUID, placements []planningDomain.Placement) error {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	query := `DELETE FROM schedule_placements WHERE plan_id = ? AND task_id = ?`
	for _, taskID := range taskIDs {
		if _, err := exec.ExecContext(ctx, query, planID.String(), taskID.String()); err != nil {
			return fmt.Errorf("delete task placements: %w", err)
		}
	}
	return insertSQLitePlacements(ctx, exec, placements)
}

func (r *SQLiteScheduleRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]planningDomain.Placement, error) {
	return r.query(ctx, `
		SELECT id, plan_id, task_id, user_id, day_index, date, start_time, end_time,
			duration_minutes, status, completed, created_at, updated_at
		FROM schedule_placements WHERE plan_id = ? ORDER BY date, start_time`, planID.String())
}

func (r *SQLiteScheduleRepository) ListByUserBetween(ctx context.Context, userID, excludePlanID uuid.UUID, from, to time.Time) ([]planningDomain.Placement, error) {
	return r.query(ctx, `
		SELECT id, plan_id, task_id, user_id, day_index, date, start_time, end_time,
			duration_minutes, status, completed, created_at, updated_at
		FROM schedule_placements
		WHERE user_id = ? AND plan_id <> ? AND date BETWEEN ? AND ?
		ORDER BY date, start_time`,
		userID.String(), excludePlanID.String(),
		from.Format(dateLayout), to.Format(dateLayout))
}

func (r *SQLiteScheduleRepository) MarkCompleted(ctx context.Context, placementID uuid.UUID) (*planningDomain.Placement, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	res, err := exec.ExecContext(ctx, `
		UPDATE schedule_placements SET completed = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), placementID.String())
	if err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, planningDomain.ErrPlacementNotFound
	}

	row := exec.QueryRowContext(ctx, `
		SELECT id, plan_id, task_id, user_id, day_index, date, start_time, end_time,
			duration_minutes, status, completed, created_at, updated_at
		FROM schedule_placements WHERE id = ?`, placementID.String())
	placement, err := scanSQLitePlacement(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("reload placement: %w", err)
	}
	return &placement, nil
}

func (r *SQLiteScheduleRepository) query(ctx context.Context, query string, args ...any) ([]planningDomain.Placement, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	defer rows.Close()

	var placements []planningDomain.Placement
	for rows.Next() {
		placement, err := scanSQLitePlacement(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		placements = append(placements, placement)
	}
	return placements, rows.Err()
}

func insertSQLitePlacements(ctx context.Context, exec sharedPersistence.SQLiteQuerier, placements []planningDomain.Placement) error {
	query := `
		INSERT INTO schedule_placements (id, plan_id, task_id, user_id, day_index, date, start_time, end_time,
			duration_minutes, status, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, p := range placements {
		_, err := exec.ExecContext(ctx, query,
			p.ID.String(), p.PlanID.String(), p.TaskID.String(), p.UserID.String(),
			p.DayIndex, p.Date.Format(dateLayout), p.StartTime, p.EndTime,
			p.DurationMinutes, string(p.Status), p.Completed,
			p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert placement %s: %w", p.ID, err)
		}
	}
	return nil
}

func scanSQLitePlacement(scan func(dest ...any) error) (planningDomain.Placement, error) {
	var p planningDomain.Placement
	var idStr, planStr, taskStr, userStr, dateStr, status, createdStr, updatedStr string
	err := scan(&idStr, &planStr, &taskStr, &userStr, &p.DayIndex, &dateStr,
		&p.StartTime, &p.EndTime, &p.DurationMinutes, &status, &p.Completed,
		&createdStr, &updatedStr)
	if err != nil {
		return planningDomain.Placement{}, err
	}

	if p.ID, err = uuid.Parse(idStr); err != nil {
		return planningDomain.Placement{}, err
	}
	if p.PlanID, err = uuid.Parse(planStr); err != nil {
		return planningDomain.Placement{}, err
	}
	if p.TaskID, err = uuid.Parse(taskStr); err != nil {
		return planningDomain.Placement{}, err
	}
	if p.UserID, err = uuid.Parse(userStr); err != nil {
		return planningDomain.Placement{}, err
	}
	if p.Date, err = time.Parse(dateLayout, dateStr); err != nil {
		return planningDomain.Placement{}, err
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return planningDomain.Placement{}, err
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return planningDomain.Placement{}, err
	}
	p.Status = planningDomain.PlacementStatus(status)
	return p, nil
}

// SQLiteHistoryRepository implements RescheduleHistoryRepository using SQLite.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteHistoryRepository creates a new SQLite history repository.
func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

func (r *SQLiteHistoryRepository) Append(ctx context.Context, entry planningDomain.RescheduleEntry) error {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	query := `
		INSERT INTO reschedule_history (id, plan_id, user_id, missed_date, old_end_date, new_end_date,
			days_extended, tasks_rescheduled, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := exec.ExecContext(ctx, query,
		entry.ID.String(), entry.PlanID.String(), entry.UserID.String(),
		entry.MissedDate.Format(dateLayout),
		entry.OldEndDate.Format(dateLayout),
		entry.NewEndDate.Format(dateLayout),
		entry.DaysExtended, entry.TasksRescheduled, entry.Reason,
		entry.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (r *SQLiteHistoryRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]planningDomain.RescheduleEntry, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	rows, err := exec.QueryContext(ctx, `
		SELECT id, plan_id, user_id, missed_date, old_end_date, new_end_date,
			days_extended, tasks_rescheduled, reason, created_at
		FROM reschedule_history WHERE plan_id = ? ORDER BY created_at DESC`, planID.String())
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []planningDomain.RescheduleEntry
	for rows.Next() {
		var entry planningDomain.RescheduleEntry
		var idStr, planStr, userStr, missedStr, oldStr, newStr, createdStr string
		err := rows.Scan(&idStr, &planStr, &userStr, &missedStr, &oldStr, &newStr,
			&entry.DaysExtended, &entry.TasksRescheduled, &entry.Reason, &createdStr)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if entry.ID, err = uuid.Parse(idStr); err != nil {
			return nil, err
		}
		if entry.PlanID, err = uuid.Parse(planStr); err != nil {
			return nil, err
		}
		if entry.UserID, err = uuid.Parse(userStr); err != nil {
			return nil, err
		}
		if entry.MissedDate, err = time.Parse(dateLayout, missedStr); err != nil {
			return nil, err
		}
		if entry.OldEndDate, err = time.Parse(dateLayout, oldStr); err != nil {
			return nil, err
		}
		if entry.NewEndDate, err = time.Parse(dateLayout, newStr); err != nil {
			return nil, err
		}
		if entry.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
