package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/waypointhq/waypoint/internal/identity/domain"
	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
)

// Service reads and writes per-user workday settings, falling back to
// defaults for users who never stored any.
type Service struct {
	repo   identityDomain.SettingsRepository
	logger *slog.Logger
}

// NewService creates a settings service.
func NewService(repo identityDomain.SettingsRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Get returns the user's settings, or the defaults when none are stored.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (identityDomain.WorkdaySettings, error) {
	stored, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, identityDomain.ErrSettingsNotFound) {
			return identityDomain.DefaultWorkdaySettings(userID), nil
		}
		return identityDomain.WorkdaySettings{}, fmt.Errorf("load settings: %w", err)
	}
	return stored, nil
}

// Update validates and stores new workday settings.
func (s *Service) Update(ctx context.Context, settings identityDomain.WorkdaySettings) error {
	if err := toWorkdayConfig(settings).Validate(); err != nil {
		return err
	}
	settings.UpdatedAt = time.Now().UTC()
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return fmt.Errorf("store settings: %w", err)
	}

	s.logger.Info("workday settings updated",
		"user_id", settings.UserID,
		"workday", fmt.Sprintf("%02d:%02d-%02d:00", settings.WorkdayStartHour, settings.WorkdayStartMinute, settings.WorkdayEndHour),
		"allow_weekends", settings.AllowWeekends,
	)
	return nil
}

// WorkdayFor returns the user's settings as scheduler input.
func (s *Service) WorkdayFor(ctx context.Context, userID uuid.UUID) (planningDomain.WorkdayConfig, error) {
	stored, err := s.Get(ctx, userID)
	if err != nil {
		return planningDomain.WorkdayConfig{}, err
	}
	return toWorkdayConfig(stored), nil
}

func toWorkdayConfig(s identityDomain.WorkdaySettings) planningDomain.WorkdayConfig {
	return planningDomain.WorkdayConfig{
		WorkdayStartHour:   s.WorkdayStartHour,
		WorkdayStartMinute: s.WorkdayStartMinute,
		WorkdayEndHour:     s.WorkdayEndHour,
		LunchStartHour:     s.LunchStartHour,
		LunchEndHour:       s.LunchEndHour,
		AllowWeekends:      s.AllowWeekends,
	}
}
