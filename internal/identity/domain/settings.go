package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSettingsNotFound is returned when a user has no stored settings row.
var ErrSettingsNotFound = errors.New("user settings not found")

// WorkdaySettings are a user's scheduling preferences.
type WorkdaySettings struct {
	UserID             uuid.UUID
	WorkdayStartHour   int
	WorkdayStartMinute int
	WorkdayEndHour     int
	LunchStartHour     int
	LunchEndHour       int
	AllowWeekends      bool
	UpdatedAt          time.Time
}

// DefaultWorkdaySettings returns the documented defaults for users who never
// changed anything: 09:00-17:00 with lunch 12:00-13:00, weekends off.
func DefaultWorkdaySettings(userID uuid.UUID) WorkdaySettings {
	return WorkdaySettings{
		UserID:             userID,
		WorkdayStartHour:   9,
		WorkdayStartMinute: 0,
		WorkdayEndHour:     17,
		LunchStartHour:     12,
		LunchEndHour:       13,
		AllowWeekends:      false,
	}
}

// SettingsRepository persists per-user workday settings.
type SettingsRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (WorkdaySettings, error)
	Upsert(ctx context.Context, settings WorkdaySettings) error
}
