package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/duty-roster/pkg/core/services"
)

// CheckCmd creates the check command
func CheckCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the input tables and build the model without solving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			week, _ := cmd.Flags().GetString("week")
			if err := app.overrideWeek(week); err != nil {
				return err
			}

			source, err := app.Source()
			if err != nil {
				return err
			}

			result, err := services.CheckInputs(source, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Input is consistent\n\n")
			fmt.Printf("Doctors:     %d\n", result.Doctors)
			fmt.Printf("Shifts:      %d\n", result.Shifts)
			fmt.Printf("Candidates:  %d\n", result.Candidates)
			fmt.Printf("Skills:      %d\n", result.Skills)
			fmt.Printf("Variables:   %d\n", result.Variables)
			fmt.Printf("Constraints: %d\n\n", result.Constraints)

			return nil
		},
	}

	cmd.Flags().String("week", "", "Monday the week starts on (overrides weekStart)")

	return cmd
}
