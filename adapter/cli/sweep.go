package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/waypointhq/waypoint/internal/planning/application/commands"
)

var sweepDate string

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the missed-day sweep once",
	Long: `Check every active plan for incomplete blocks on the swept date
and apply a reschedule where one is needed. The worker runs this
nightly; the command exists for catch-up after downtime.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotConnected()
		}

		var date time.Time
		if sweepDate != "" {
			parsed, err := parseDate(sweepDate)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			date = parsed
		}

		result, err := app.SweepMissedDaysHandler.Handle(cmd.Context(), commands.SweepMissedDaysCommand{
			Date: date,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Checked %d plan(s): %d missed, %d rescheduled, %d failed.\n",
			result.PlansChecked, result.PlansMissed, result.PlansApplied, result.Failures)
		return nil
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepDate, "date", "", "date to sweep (YYYY-MM-DD, default yesterday)")
	rootCmd.AddCommand(sweepCmd)
}
