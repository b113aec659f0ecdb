package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

var (
	workdayStartHour   int
	workdayStartMinute int
	workdayEndHour     int
	lunchStartHour     int
	lunchEndHour       int
	allowWeekends      bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage scheduling preferences",
}

var workdayCmd = &cobra.Command{
	Use:   "workday",
	Short: "Show or change workday bounds",
	Long: `Without flags, shows the current workday settings.
With flags, updates them.

Examples:
  waypoint settings workday
  waypoint settings workday --start-hour 8 --end-hour 16
  waypoint settings workday --weekends`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotConnected()
		}
		ctx := cmd.Context()

		current, err := app.SettingsService.Get(ctx, app.UserID)
		if err != nil {
			return err
		}

		changed := false
		flagValues := map[string]*int{
			"start-hour":   &current.WorkdayStartHour,
			"start-minute": &current.WorkdayStartMinute,
			"end-hour":     &current.WorkdayEndHour,
			"lunch-start":  &current.LunchStartHour,
			"lunch-end":    &current.LunchEndHour,
		}
		flagInputs := map[string]int{
			"start-hour":   workdayStartHour,
			"start-minute": workdayStartMinute,
			"end-hour":     workdayEndHour,
			"lunch-start":  lunchStartHour,
			"lunch-end":    lunchEndHour,
		}
		for name, dest := range flagValues {
			if cmd.Flags().Changed(name) {
				*dest = flagInputs[name]
				changed = true
			}
		}
		if cmd.Flags().Changed("weekends") {
			current.AllowWeekends = allowWeekends
			changed = true
		}

		if changed {
			if err := app.SettingsService.Update(ctx, current); err != nil {
				return err
			}
			fmt.Println("Workday settings updated.")
		}

		weekends := "weekends off"
		if current.AllowWeekends {
			weekends = "weekends on"
		}
		fmt.Printf("Workday %02d:%02d-%02d:00, lunch %02d:00-%02d:00, %s\n",
			current.WorkdayStartHour, current.WorkdayStartMinute, current.WorkdayEndHour,
			current.LunchStartHour, current.LunchEndHour, weekends)
		return nil
	},
}

var (
	connectAccessToken  string
	connectRefreshToken string
	connectExpiry       string
)

var connectGoogleCmd = &cobra.Command{
	Use:   "connect-google",
	Short: "Store a Google Calendar token",
	Long: `Store an OAuth token for Google Calendar busy-time lookups.
The token is encrypted at rest. Obtain it from the Google OAuth
playground or any authorized client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotConnected()
		}
		if app.OAuthService == nil {
			return fmt.Errorf("token storage requires WAYPOINT_ENCRYPTION_KEY to be set")
		}

		token := &oauth2.Token{
			AccessToken:  connectAccessToken,
			RefreshToken: connectRefreshToken,
		}
		if connectExpiry != "" {
			expiry, err := time.Parse(time.RFC3339, connectExpiry)
			if err != nil {
				return fmt.Errorf("invalid --expiry: %w", err)
			}
			token.Expiry = expiry
		}

		if err := app.OAuthService.ImportToken(cmd.Context(), app.UserID, token); err != nil {
			return err
		}
		fmt.Println("Google Calendar token stored. Restart waypoint to pick it up.")
		return nil
	},
}

func init() {
	workdayCmd.Flags().IntVar(&workdayStartHour, "start-hour", 9, "workday start hour")
	workdayCmd.Flags().IntVar(&workdayStartMinute, "start-minute", 0, "workday start minute")
	workdayCmd.Flags().IntVar(&workdayEndHour, "end-hour", 17, "workday end hour")
	workdayCmd.Flags().IntVar(&lunchStartHour, "lunch-start", 12, "lunch start hour")
	workdayCmd.Flags().IntVar(&lunchEndHour, "lunch-end", 13, "lunch end hour")
	workdayCmd.Flags().BoolVar(&allowWeekends, "weekends", false, "allow scheduling on weekends")

	connectGoogleCmd.Flags().StringVar(&connectAccessToken, "access-token", "", "OAuth access token")
	connectGoogleCmd.Flags().StringVar(&connectRefreshToken, "refresh-token", "", "OAuth refresh token")
	connectGoogleCmd.Flags().StringVar(&connectExpiry, "expiry", "", "access token expiry (RFC3339)")
	_ = connectGoogleCmd.MarkFlagRequired("access-token")

	settingsCmd.AddCommand(workdayCmd)
	settingsCmd.AddCommand(connectGoogleCmd)
	rootCmd.AddCommand(settingsCmd)
}
