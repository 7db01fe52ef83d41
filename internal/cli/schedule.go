package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/frontdesk/internal/visitor"
)

func newScheduleCmd() *cobra.Command {
	var req visitor.ScheduleRequest

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Pre-register an expected visitor",
		Long:  "Schedule a visitor for a date and expected arrival time. They show as expected until their arrival is logged.",
		Example: `  frontdesk schedule --name Dee --surname Ross --host Bob --date 2026-03-04 --expected 14:00`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newAPIClient().Schedule(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("scheduling: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s scheduled for %s at %s (#%d).\n", v.FullName(), v.Date, dash(v.ExpectedTimeIn), v.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "first name (required)")
	cmd.Flags().StringVar(&req.Surname, "surname", "", "surname (required)")
	cmd.Flags().StringVar(&req.Host, "host", "", "person being visited (required)")
	cmd.Flags().StringVar(&req.Date, "date", "", "visit date (required)")
	cmd.Flags().StringVar(&req.ExpectedTimeIn, "expected", "", "expected arrival time (required)")
	cmd.Flags().StringVar(&req.Company, "company", "", "visitor's company")
	cmd.Flags().StringVar(&req.VisitorPhoneNumber, "phone", "", "visitor's phone number")
	cmd.Flags().StringVar(&req.ReasonForVisit, "reason", "", "reason for visit")

	return cmd
}
