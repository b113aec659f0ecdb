package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/waypointhq/waypoint/internal/identity/domain"
	sharedPersistence "github.com/waypointhq/waypoint/internal/shared/infrastructure/persistence"
)

// SQLiteSettingsRepository implements SettingsRepository using SQLite.
type SQLiteSettingsRepository struct {
	db *sql.DB
}

// NewSQLiteSettingsRepository creates a new SQLite settings repository.
func NewSQLiteSettingsRepository(db *sql.DB) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{db: db}
}

func (r *SQLiteSettingsRepository) Get(ctx context.Context, userID uuid.UUID) (identityDomain.WorkdaySettings, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	query := `
		SELECT user_id, workday_start_hour, workday_start_minute, workday_end_hour,
			lunch_start_hour, lunch_end_hour, allow_weekends, updated_at
		FROM user_settings
		WHERE user_id = ?`

	var s identityDomain.WorkdaySettings
	var userStr, updatedStr string
	err := exec.QueryRowContext(ctx, query, userID.String()).Scan(
		&userStr, &s.WorkdayStartHour, &s.WorkdayStartMinute, &s.WorkdayEndHour,
		&s.LunchStartHour, &s.LunchEndHour, &s.AllowWeekends, &updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identityDomain.WorkdaySettings{}, identityDomain.ErrSettingsNotFound
		}
		return identityDomain.WorkdaySettings{}, fmt.Errorf("get settings: %w", err)
	}

	if s.UserID, err = uuid.Parse(userStr); err != nil {
		return identityDomain.WorkdaySettings{}, err
	}
	if s.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return identityDomain.WorkdaySettings{}, err
	}
	return s, nil
}

func (r *SQLiteSettingsRepository) Upsert(ctx context.Context, settings identityDomain.WorkdaySettings) error {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	query := `
		INSERT INTO user_settings (user_id, workday_start_hour, workday_start_minute, workday_end_hour,
			lunch_start_hour, lunch_end_hour, allow_weekends, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			workday_start_hour = excluded.workday_start_hour,
			workday_start_minute = excluded.workday_start_minute,
			workday_end_hour = excluded.workday_end_hour,
			lunch_start_hour = excluded.lunch_start_hour,
			lunch_end_hour = excluded.lunch_end_hour,
			allow_weekends = excluded.allow_weekends,
			updated_at = excluded.updated_at`

	_, err := exec.ExecContext(ctx, query,
		settings.UserID.String(), settings.WorkdayStartHour, settings.WorkdayStartMinute, settings.WorkdayEndHour,
		settings.LunchStartHour, settings.LunchEndHour, settings.AllowWeekends,
		settings.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
