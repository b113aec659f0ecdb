package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/migrations"

	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory SQLite database with the schema applied.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), sqlDB))
	return sqlDB
}

func seedTestPlan(t *testing.T, db *sql.DB, userID uuid.UUID) *planningDomain.Plan {
	t.Helper()

	start := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	plan, err := planningDomain.NewPlan(userID, "launch prep", start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.NoError(t, NewSQLitePlanRepository(db).Save(context.Background(), plan))
	return plan
}

func TestSQLitePlanRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewSQLitePlanRepository(db)
	userID := uuid.New()

	plan := seedTestPlan(t, db, userID)

	t.Run("round-trips a plan", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, plan.ID())
		require.NoError(t, err)

		assert.Equal(t, plan.ID(), loaded.ID())
		assert.Equal(t, userID, loaded.UserID())
		assert.Equal(t, "launch prep", loaded.Name())
		assert.True(t, loaded.StartDate().Equal(plan.StartDate()))
		assert.True(t, loaded.EndDate().Equal(plan.EndDate()))
		assert.Equal(t, planningDomain.PlanStatusActive, loaded.Status())
	})

	t.Run("updates on conflict", func(t *testing.T) {
		plan.ExtendEndDate(3)
		require.NoError(t, repo.Save(ctx, plan))

		loaded, err := repo.FindByID(ctx, plan.ID())
		require.NoError(t, err)
		assert.True(t, loaded.EndDate().Equal(plan.EndDate()))
	})

	t.Run("lists only active plans", func(t *testing.T) {
		archived, err := planningDomain.NewPlan(userID, "old plan", plan.StartDate(), plan.EndDate())
		require.NoError(t, err)
		archived.Archive()
		require.NoError(t, repo.Save(ctx, archived))

		active, err := repo.ListActiveByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, plan.ID(), active[0].ID())
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, planningDomain.ErrPlanNotFound)
	})
}

func TestSQLiteTaskRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	userID := uuid.New()
	plan := seedTestPlan(t, db, userID)
	repo := NewSQLiteTaskRepository(db)

	taskA, err := planningDomain.NewPlanTask(plan.ID(), 0, "write draft", 90, 1, 0)
	require.NoError(t, err)
	taskB, err := planningDomain.NewPlanTask(plan.ID(), 1, "review", 45, 2, 7)
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceForPlan(ctx, plan.ID(), []planningDomain.PlanTask{taskA, taskB}))

	loaded, err := repo.ListByPlan(ctx, plan.ID())
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, taskA.ID, loaded[0].ID)
	assert.Equal(t, 90, loaded[0].DurationMinutes)
	assert.Equal(t, 7, loaded[1].ComplexityScore)

	// Replace drops rows that are no longer in the list.
	require.NoError(t, repo.ReplaceForPlan(ctx, plan.ID(), []planningDomain.PlanTask{taskB}))
	loaded, err = repo.ListByPlan(ctx, plan.ID())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, taskB.ID, loaded[0].ID)
}

func testPlacement(plan *planningDomain.Plan, taskID uuid.UUID, dayIndex int, start string, end string, minutes int) planningDomain.Placement {
	now := time.Now().UTC().Truncate(time.Second)
	return planningDomain.Placement{
		ID:              uuid.New(),
		PlanID:          plan.ID(),
		TaskID:          taskID,
		UserID:          plan.UserID(),
		DayIndex:        dayIndex,
		Date:            plan.StartDate().AddDate(0, 0, dayIndex),
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: minutes,
		Status:          planningDomain.PlacementStatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestSQLiteScheduleRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	userID := uuid.New()
	plan := seedTestPlan(t, db, userID)
	repo := NewSQLiteScheduleRepository(db)

	taskA := uuid.New()
	taskB := uuid.New()
	first := testPlacement(plan, taskA, 0, "09:00", "10:00", 60)
	second := testPlacement(plan, taskB, 1, "13:00", "14:30", 90)
	require.NoError(t, repo.ReplaceForPlan(ctx, plan.ID(), []planningDomain.Placement{first, second}))

	t.Run("round-trips placements in date order", func(t *testing.T) {
		loaded, err := repo.ListByPlan(ctx, plan.ID())
		require.NoError(t, err)
		require.Len(t, loaded, 2)

		assert.Equal(t, first.ID, loaded[0].ID)
		assert.Equal(t, "09:00", loaded[0].StartTime)
		assert.True(t, loaded[0].Date.Equal(first.Date))
		assert.Equal(t, 90, loaded[1].DurationMinutes)
		assert.False(t, loaded[0].Completed)
	})

	t.Run("marks a placement completed", func(t *testing.T) {
		done, err := repo.MarkCompleted(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, done.Completed)

		_, err = repo.MarkCompleted(ctx, uuid.New())
		assert.ErrorIs(t, err, planningDomain.ErrPlacementNotFound)
	})

	t.Run("replaces only the given tasks", func(t *testing.T) {
		replacement := testPlacement(plan, taskB, 2, "09:00", "10:30", 90)
		require.NoError(t, repo.ReplaceTasks(ctx, plan.ID(), []uuid.UUID{taskB}, []planningDomain.Placement{replacement}))

		loaded, err := repo.ListByPlan(ctx, plan.ID())
		require.NoError(t, err)
		require.Len(t, loaded, 2)
		assert.Equal(t, first.ID, loaded[0].ID)
		assert.Equal(t, replacement.ID, loaded[1].ID)
		assert.Equal(t, 2, loaded[1].DayIndex)
	})

	t.Run("filters cross-plan rows by user and range", func(t *testing.T) {
		otherPlan := seedTestPlan(t, db, userID)
		otherRow := testPlacement(otherPlan, uuid.New(), 0, "11:00", "12:00", 60)
		require.NoError(t, repo.ReplaceForPlan(ctx, otherPlan.ID(), []planningDomain.Placement{otherRow}))

		rows, err := repo.ListByUserBetween(ctx, userID, plan.ID(), plan.StartDate(), plan.EndDate())
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, otherRow.ID, rows[0].ID)

		rows, err = repo.ListByUserBetween(ctx, uuid.New(), plan.ID(), plan.StartDate(), plan.EndDate())
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestSQLiteHistoryRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	userID := uuid.New()
	plan := seedTestPlan(t, db, userID)
	repo := NewSQLiteHistoryRepository(db)

	entry := planningDomain.RescheduleEntry{
		ID:               uuid.New(),
		PlanID:           plan.ID(),
		UserID:           userID,
		MissedDate:       plan.StartDate(),
		OldEndDate:       plan.EndDate(),
		NewEndDate:       plan.EndDate().AddDate(0, 0, 1),
		DaysExtended:     1,
		TasksRescheduled: 3,
		Reason:           "missed day sweep",
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.Append(ctx, entry))

	entries, err := repo.ListByPlan(ctx, plan.ID())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, entry.ID, entries[0].ID)
	assert.True(t, entries[0].MissedDate.Equal(entry.MissedDate))
	assert.True(t, entries[0].NewEndDate.Equal(entry.NewEndDate))
	assert.Equal(t, 1, entries[0].DaysExtended)
	assert.Equal(t, 3, entries[0].TasksRescheduled)
	assert.Equal(t, "missed day sweep", entries[0].Reason)
}
