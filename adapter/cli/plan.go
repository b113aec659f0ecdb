package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/waypointhq/waypoint/internal/planning/application/commands"
	"github.com/waypointhq/waypoint/internal/planning/application/queries"
)

var (
	planName  string
	planStart string
	planEnd   string
	planTasks []string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage goal plans and their schedules",
}

var planCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a plan with its task list",
	Long: `Create a plan covering a date range. Tasks are given as
"name:duration-minutes[:priority[:complexity]]", one --task flag each.
Lower priority numbers schedule first.

Examples:
  waypoint plan create --name "Launch prep" --start 2026-03-02 --end 2026-03-13 \
    --task "write announcement:120:1:3" \
    --task "record demo:90:2:4"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotConnected()
		}

		start, err := parseDate(planStart)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		end, err := parseDate(planEnd)
		if err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}

		inputs := make([]commands.TaskInput, 0, len(planTasks))
		for _, raw := range planTasks {
			input, err := parseTaskInput(raw)
			if err != nil {
				return err
			}
			inputs = append(inputs, input)
		}

		result, err := app.CreatePlanHandler.Handle(cmd.Context(), commands.CreatePlanCommand{
			UserID:    app.UserID,
			Name:      planName,
			StartDate: start,
			EndDate:   end,
			Tasks:     inputs,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created plan %s with %d tasks.\n", result.PlanID, result.TaskCount)
		fmt.Printf("Run 'waypoint plan schedule %s' to generate the schedule.\n", result.PlanID)
		return nil
	},
}

var planScheduleCmd = &cobra.Command{
	Use:   "schedule <plan-id>",
	Short: "Generate (or regenerate) the plan's time-block schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotConnected()
		}
		planID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid plan id: %w", err)
		}

		result, err := app.GenerateScheduleHandler.Handle(cmd.Context(), commands.GenerateScheduleCommand{
			PlanID: planID,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Scheduled %d blocks (%.1f hours).\n", len(result.Placements), result.TotalScheduledHours)
		if len(result.UnscheduledTasks) > 0 {
			fmt.Printf("\n%d tasks did not fit in the plan window:\n", len(result.UnscheduledTasks))
			for _, task := range result.UnscheduledTasks {
				fmt.Printf("  - %s (%dm)\n", task.Name, task.DurationMinutes)
			}
			fmt.Println("Extend the plan end date or trim the task list.")
		}
		return nil
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show the plan's current schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotConnected()
		}
		planID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid plan id: %w", err)
		}

		result, err := app.GetScheduleHandler.Handle(cmd.Context(), queries.GetScheduleQuery{PlanID: planID})
		if err != nil {
			return err
		}

		fmt.Printf("\n  %s  (%s to %s, %s)\n", result.PlanName, result.StartDate, result.EndDate, result.Status)
		fmt.Println(strings.Repeat("=", 60))
		if len(result.Days) == 0 {
			fmt.Println("  No schedule yet. Run 'waypoint plan schedule' first.")
			return nil
		}
		for _, day := range result.Days {
			fmt.Printf("\n  %s\n", day.Date)
			for _, p := range day.Placements {
				mark := " "
				if p.Completed {
					mark = "x"
				}
				fmt.Printf("    [%s] %s-%s  %-30s  [%s]\n",
					mark, p.StartTime, p.EndTime, p.TaskName, p.PlacementID.String()[:8])
			}
		}
		if len(result.Unscheduled) > 0 {
			fmt.Printf("\n  Unscheduled: %s\n", strings.Join(result.Unscheduled, ", "))
		}
		return nil
	},
}

var (
	rescheduleMissed string
	rescheduleApply  bool
	rescheduleReason string
)

var planRescheduleCmd = &cobra.Command{
	Use:   "reschedule <plan-id>",
	Short: "Analyze a missed day and optionally apply the proposal",
	Long: `Analyze what a missed day does to the plan's remaining schedule.

Incomplete blocks from the missed day onward are re-packed into the
remaining window, extending the plan end date when they no longer fit.
Without --apply the proposal is only printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotConnected()
		}
		planID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid plan id: %w", err)
		}
		missed, err := parseDate(rescheduleMissed)
		if err != nil {
			return fmt.Errorf("invalid --missed: %w", err)
		}

		proposal, err := app.AnalyzeMissedDayHandler.Handle(cmd.Context(), commands.AnalyzeMissedDayCommand{
			PlanID:     planID,
			MissedDate: missed,
		})
		if err != nil {
			return err
		}
		if proposal == nil {
			fmt.Println("Nothing to reschedule.")
			return nil
		}

		fmt.Printf("Reschedule proposal for %s:\n", missed.Format("2006-01-02"))
		fmt.Printf("  Tasks to move: %d\n", len(proposal.Adjustments))
		if proposal.DaysExtended > 0 {
			fmt.Printf("  Plan extends %d day(s), new end date %s\n",
				proposal.DaysExtended, proposal.NewEndDate.Format("2006-01-02"))
		}
		for _, adj := range proposal.Adjustments {
			slot := adj.NewSlot
			fmt.Printf("  - %s  %s %s-%s\n",
				adj.TaskID.String()[:8], slot.Date.Format("2006-01-02"), slot.StartTime, slot.EndTime)
		}
		if len(proposal.UnplacedTaskIDs) > 0 {
			fmt.Printf("  %d task(s) no longer fit even at the extension cap.\n", len(proposal.UnplacedTaskIDs))
		}

		if !rescheduleApply {
			fmt.Println("\nRe-run with --apply to accept.")
			return nil
		}

		entry, err := app.ApplyRescheduleHandler.Handle(cmd.Context(), commands.ApplyRescheduleCommand{
			Proposal: proposal,
			Reason:   rescheduleReason,
		})
		if err != nil {
			return err
		}
		fmt.Printf("\nApplied: %d tasks moved, end date %s.\n",
			entry.TasksRescheduled, entry.NewEndDate.Format("2006-01-02"))
		return nil
	},
}

var planDoneCmd = &cobra.Command{
	Use:     "done <placement-id>",
	Short:   "Mark a scheduled block as completed",
	Aliases: []string{"complete"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotConnected()
		}
		placementID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid placement id: %w", err)
		}

		if _, err := app.CompletePlacementHandler.Handle(cmd.Context(), commands.CompletePlacementCommand{
			PlacementID: placementID,
		}); err != nil {
			return err
		}
		fmt.Println("Block completed.")
		return nil
	},
}

var planHistoryCmd = &cobra.Command{
	Use:   "history <plan-id>",
	Short: "Show the plan's reschedule history, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotConnected()
		}
		planID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid plan id: %w", err)
		}

		items, err := app.ListRescheduleHistoryHandler.Handle(cmd.Context(), queries.ListRescheduleHistoryQuery{PlanID: planID})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No reschedules recorded.")
			return nil
		}
		for _, item := range items {
			fmt.Printf("%s  missed %s  %d task(s) moved, +%d day(s) -> %s  (%s)\n",
				item.CreatedAt.Format("2006-01-02 15:04"),
				item.MissedDate, item.TasksRescheduled, item.DaysExtended, item.NewEndDate, item.Reason)
		}
		return nil
	},
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required (YYYY-MM-DD)")
	}
	return time.Parse("2006-01-02", value)
}

// parseTaskInput parses "name:duration[:priority[:complexity]]".
func parseTaskInput(raw string) (commands.TaskInput, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 4 {
		return commands.TaskInput{}, fmt.Errorf("invalid task %q, expected name:duration[:priority[:complexity]]", raw)
	}

	input := commands.TaskInput{Name: strings.TrimSpace(parts[0])}
	duration, err := strconv.Atoi(parts[1])
	if err != nil {
		return commands.TaskInput{}, fmt.Errorf("invalid duration in task %q: %w", raw, err)
	}
	input.DurationMinutes = duration

	if len(parts) > 2 {
		if input.Priority, err = strconv.Atoi(parts[2]); err != nil {
			return commands.TaskInput{}, fmt.Errorf("invalid priority in task %q: %w", raw, err)
		}
	}
	if len(parts) > 3 {
		if input.ComplexityScore, err = strconv.Atoi(parts[3]); err != nil {
			return commands.TaskInput{}, fmt.Errorf("invalid complexity in task %q: %w", raw, err)
		}
	}
	return input, nil
}

func errNotConnected() error {
	return fmt.Errorf("waypoint is not initialized, check the configuration and storage settings")
}

func init() {
	planCreateCmd.Flags().StringVar(&planName, "name", "", "plan name")
	planCreateCmd.Flags().StringVar(&planStart, "start", "", "start date (YYYY-MM-DD)")
	planCreateCmd.Flags().StringVar(&planEnd, "end", "", "end date (YYYY-MM-DD)")
	planCreateCmd.Flags().StringArrayVar(&planTasks, "task", nil, "task as name:duration[:priority[:complexity]]")
	_ = planCreateCmd.MarkFlagRequired("name")
	_ = planCreateCmd.MarkFlagRequired("start")
	_ = planCreateCmd.MarkFlagRequired("end")

	planRescheduleCmd.Flags().StringVar(&rescheduleMissed, "missed", "", "the missed date (YYYY-MM-DD)")
	planRescheduleCmd.Flags().BoolVar(&rescheduleApply, "apply", false, "apply the proposal instead of printing it")
	planRescheduleCmd.Flags().StringVar(&rescheduleReason, "reason", "manual reschedule", "reason recorded in history")
	_ = planRescheduleCmd.MarkFlagRequired("missed")

	planCmd.AddCommand(planCreateCmd)
	planCmd.AddCommand(planScheduleCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planRescheduleCmd)
	planCmd.AddCommand(planDoneCmd)
	planCmd.AddCommand(planHistoryCmd)
	rootCmd.AddCommand(planCmd)
}
