package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	identityDomain "github.com/waypointhq/waypoint/internal/identity/domain"
	sharedPersistence "github.com/waypointhq/waypoint/internal/shared/infrastructure/persistence"
)

// PostgresSettingsRepository implements SettingsRepository using PostgreSQL.
type PostgresSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSettingsRepository creates a new PostgreSQL settings repository.
func NewPostgresSettingsRepository(pool *pgxpool.Pool) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{pool: pool}
}

func (r *PostgresSettingsRepository) Get(ctx context.Context, userID uuid.UUID) (identityDomain.WorkdaySettings, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `
		SELECT user_id, workday_start_hour, workday_start_minute, workday_end_hour,
			lunch_start_hour, lunch_end_hour, allow_weekends, updated_at
		FROM user_settings
		WHERE user_id = $1`

	var s identityDomain.WorkdaySettings
	err := exec.QueryRow(ctx, query, userID).Scan(
		&s.UserID, &s.WorkdayStartHour, &s.WorkdayStartMinute, &s.WorkdayEndHour,
		&s.LunchStartHour, &s.LunchEndHour, &s.AllowWeekends, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identityDomain.WorkdaySettings{}, identityDomain.ErrSettingsNotFound
		}
		return identityDomain.WorkdaySettings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

func (r *PostgresSettingsRepository) Upsert(ctx context.Context, settings identityDomain.WorkdaySettings) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `
		INSERT INTO user_settings (user_id, workday_start_hour, workday_start_minute, workday_end_hour,
			lunch_start_hour, lunch_end_hour, allow_weekends, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			workday_start_hour = EXCLUDED.workday_start_hour,
			workday_start_minute = EXCLUDED.workday_start_minute,
			workday_end_hour = EXCLUDED.workday_end_hour,
			lunch_start_hour = EXCLUDED.lunch_start_hour,
			lunch_end_hour = EXCLUDED.lunch_end_hour,
			allow_weekends = EXCLUDED.allow_weekends,
			updated_at = EXCLUDED.updated_at`

	_, err := exec.Exec(ctx, query,
		settings.UserID, settings.WorkdayStartHour, settings.WorkdayStartMinute, settings.WorkdayEndHour,
		settings.LunchStartHour, settings.LunchEndHour, settings.AllowWeekends, settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
