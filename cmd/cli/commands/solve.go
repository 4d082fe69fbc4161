package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/capacity"
	"github.com/jakechorley/duty-roster/pkg/core/roster"
	"github.com/jakechorley/duty-roster/pkg/core/services"
)

// SolveCmd creates the solve command
func SolveCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Compute the roster of a week and publish it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			week, _ := cmd.Flags().GetString("week")
			if err := app.overrideWeek(week); err != nil {
				return err
			}
			if cmd.Flags().Changed("relaxed") {
				app.Cfg.Rules.RelaxedStaffing, _ = cmd.Flags().GetBool("relaxed")
			}
			if noAdvisor, _ := cmd.Flags().GetBool("no-advisor"); noAdvisor {
				app.Cfg.Capacity.Enabled = false
			}

			app.Logger.Debug("solve command",
				zap.String("week_start", app.Cfg.WeekStart),
				zap.Bool("relaxed_staffing", app.Cfg.Rules.RelaxedStaffing),
				zap.Bool("capacity_advisor", app.Cfg.Capacity.Enabled))

			source, err := app.Source()
			if err != nil {
				return err
			}
			publishers, err := app.Publishers()
			if err != nil {
				return err
			}

			result, err := services.SolveRoster(app.Ctx, source, app.Store, publishers, app.Backend, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			printSolveResult(os.Stdout, result)
			return nil
		},
	}

	cmd.Flags().String("week", "", "Monday the week starts on (overrides weekStart)")
	cmd.Flags().Bool("relaxed", false, "Allow understaffed shifts at a penalty")
	cmd.Flags().Bool("no-advisor", false, "Do not evaluate extra doctors for an uncovered week")

	return cmd
}

func printSolveResult(w io.Writer, result *services.SolveRosterResult) {
	outcome := result.Outcome
	summary := result.Result.SummaryRecord()

	if outcome.Unresolved {
		fmt.Fprintf(w, "\n⚠️  Roster for week of %s is incomplete\n\n", result.WeekStart.Format("2006-01-02"))
	} else {
		fmt.Fprintf(w, "\n✓ Roster computed for week of %s\n\n", result.WeekStart.Format("2006-01-02"))
	}

	if result.RunID != "" {
		fmt.Fprintf(w, "Run ID:     %s\n", result.RunID)
	}
	fmt.Fprintf(w, "State:      %s\n", outcome.State)
	fmt.Fprintf(w, "Status:     %s\n", summary.Status)
	fmt.Fprintf(w, "Objective:  %s\n", formatObjective(summary.ObjectiveValue))
	fmt.Fprintf(w, "Shortfall:  %d\n", summary.Shortfall)
	if outcome.Hired != nil {
		fmt.Fprintf(w, "Extended:   %s (%s, cost %g)\n", outcome.Hired.Doctor.ID, outcome.Hired.Doctor.Name, outcome.Hired.Cost)
	}
	fmt.Fprintln(w)

	if len(outcome.Evaluations) > 0 {
		fmt.Fprintf(w, "Candidates evaluated:\n")
		for _, e := range outcome.Evaluations {
			mark := "✗"
			if e.Resolved() {
				mark = "✓"
			}
			fmt.Fprintf(w, "  %s %-12s %-10s shortfall %d, objective %s, cost %g\n",
				mark,
				e.Candidate.Doctor.ID,
				e.Result.Status,
				e.Result.TotalShortfall(),
				formatObjective(e.Result.Summary.ObjectiveValue),
				e.Candidate.Cost)
		}
		fmt.Fprintln(w)
	}

	if result.Result.HasSolution() {
		printSchedule(w, result.Result)
	}

	if len(result.Published) > 0 {
		fmt.Fprintf(w, "Published to:\n")
		for _, p := range result.Published {
			fmt.Fprintf(w, "  %s\n", p)
		}
		fmt.Fprintln(w)
	}
}

func printSchedule(w io.Writer, result *roster.Result) {
	fmt.Fprintf(w, "%-4s %-16s %-7s %-11s %s\n", "Day", "Shift", "Dept", "Hours", "Doctor")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, row := range result.ScheduleRecords() {
		doctor := row.Doctor
		if row.DoctorID != "" {
			doctor = fmt.Sprintf("%s (%s)", row.Doctor, row.DoctorID)
		}
		fmt.Fprintf(w, "%-4s %-16s %-7s %02d-%02d (%2d) %s\n",
			row.Day, row.ShiftCode, row.Dept, row.StartHour, row.EndHour, row.Hours, doctor)
	}
	fmt.Fprintln(w)
}

// formatObjective renders an optional objective value
func formatObjective(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

// outcomeLabel is a one-word description of an advisor outcome
func outcomeLabel(state string, unresolved bool) string {
	switch {
	case unresolved:
		return "UNRESOLVED"
	case state == string(capacity.StateExtended):
		return "EXTENDED"
	default:
		return "OK"
	}
}
