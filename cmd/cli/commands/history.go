package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/services"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// HistoryCmd creates the history command
func HistoryCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run_id]",
		Short: "List stored roster runs, or show the assignments of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				app.Logger.Debug("history command", zap.String("run_id", args[0]))

				details, err := services.GetRun(app.Ctx, app.Store, app.Logger, args[0])
				if err != nil {
					return err
				}
				printRunDetails(os.Stdout, details)
				return nil
			}

			limit, _ := cmd.Flags().GetInt("limit")
			if limit < 0 {
				return fmt.Errorf("limit must be a non-negative integer, got: %d", limit)
			}
			app.Logger.Debug("history command", zap.Int("limit", limit))

			runs, err := services.ListRuns(app.Ctx, app.Store, app.Logger, limit)
			if err != nil {
				return err
			}
			printRuns(os.Stdout, runs)
			return nil
		},
	}

	cmd.Flags().Int("limit", 10, "Number of runs to show (0 for all)")

	return cmd
}

func printRuns(w io.Writer, runs []db.RosterRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored yet.")
		return
	}

	fmt.Fprintf(w, "\n%-36s  %-10s  %-10s  %-11s  %-9s  %s\n", "Run ID", "Week", "Outcome", "Status", "Shortfall", "Created")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, run := range runs {
		outcome := outcomeLabel(run.State, run.Unresolved)
		if run.ExtendedWith != "" {
			outcome += "+" + run.ExtendedWith
		}
		fmt.Fprintf(w, "%-36s  %-10s  %-10s  %-11s  %-9d  %s\n",
			run.ID, run.WeekStart, outcome, run.Status, run.Shortfall, run.CreatedAt)
	}
	fmt.Fprintln(w)
}

func printRunDetails(w io.Writer, details *services.RunDetails) {
	run := details.Run
	fmt.Fprintf(w, "\nRun ID:     %s\n", run.ID)
	fmt.Fprintf(w, "Week:       %s\n", run.WeekStart)
	fmt.Fprintf(w, "Outcome:    %s\n", outcomeLabel(run.State, run.Unresolved))
	fmt.Fprintf(w, "Status:     %s\n", run.Status)
	fmt.Fprintf(w, "Objective:  %s\n", formatObjective(run.Objective))
	fmt.Fprintf(w, "Shortfall:  %d\n", run.Shortfall)
	if run.ExtendedWith != "" {
		fmt.Fprintf(w, "Extended:   %s\n", run.ExtendedWith)
	}
	fmt.Fprintf(w, "Created:    %s\n\n", run.CreatedAt)

	byDay := groupByDay(details.Assignments)
	for _, day := range dayOrder(details.Assignments) {
		fmt.Fprintf(w, "%s:\n", day)
		for _, a := range byDay[day] {
			doctor := a.DoctorID
			if doctor == "" {
				doctor = "UNFILLED"
			}
			fmt.Fprintf(w, "  %-16s %s\n", a.ShiftCode, doctor)
		}
	}
	fmt.Fprintln(w)
}

// dayOrder returns the days of the assignments in first-seen order
func dayOrder(assignments []db.RosterAssignment) []string {
	var days []string
	seen := make(map[string]bool)
	for _, a := range assignments {
		if !seen[a.Day] {
			seen[a.Day] = true
			days = append(days, a.Day)
		}
	}
	return days
}

func groupByDay(assignments []db.RosterAssignment) map[string][]db.RosterAssignment {
	grouped := make(map[string][]db.RosterAssignment)
	for _, a := range assignments {
		grouped[a.Day] = append(grouped[a.Day], a)
	}
	return grouped
}
