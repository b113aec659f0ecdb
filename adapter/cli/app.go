package cli

import (
	"github.com/google/uuid"

	identityOAuth "github.com/waypointhq/waypoint/internal/identity/application/oauth"
	identitySettings "github.com/waypointhq/waypoint/internal/identity/application/settings"
	"github.com/waypointhq/waypoint/internal/planning/application/commands"
	"github.com/waypointhq/waypoint/internal/planning/application/queries"
)

// App holds the CLI application dependencies.
type App struct {
	UserID uuid.UUID

	// Command handlers
	CreatePlanHandler        *commands.CreatePlanHandler
	GenerateScheduleHandler  *commands.GenerateScheduleHandler
	AnalyzeMissedDayHandler  *commands.AnalyzeMissedDayHandler
	ApplyRescheduleHandler   *commands.ApplyRescheduleHandler
	CompletePlacementHandler *commands.CompletePlacementHandler
	SweepMissedDaysHandler   *commands.SweepMissedDaysHandler

	// Query handlers
	GetScheduleHandler           *queries.GetScheduleHandler
	ListRescheduleHistoryHandler *queries.ListRescheduleHistoryHandler

	// Services
	SettingsService *identitySettings.Service
	OAuthService    *identityOAuth.Service
}

var appInstance *App

// SetApp stores the wired application for command handlers to use.
func SetApp(app *App) {
	appInstance = app
}

// GetApp returns the wired application, or nil when bootstrap failed.
func GetApp() *App {
	return appInstance
}
