package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/frontdesk/internal/visitor"
)

func newSignInCmd() *cobra.Command {
	var req visitor.SignInRequest

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in a walk-in visitor",
		Long: `Record a walk-in visitor as arrived now. The visitor must have accepted the
visitor agreement (--agree).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newAPIClient().SignIn(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("signing in: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s signed in at %s.\n", v.FullName(), dash(v.TimeIn))
			printVisitorSummary(cmd.OutOrStdout(), v)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "first name (required)")
	cmd.Flags().StringVar(&req.Surname, "surname", "", "surname (required)")
	cmd.Flags().StringVar(&req.Host, "host", "", "person being visited (required)")
	cmd.Flags().StringVar(&req.Company, "company", "", "visitor's company")
	cmd.Flags().StringVar(&req.VisitorPhoneNumber, "phone", "", "visitor's phone number")
	cmd.Flags().StringVar(&req.ReasonForVisit, "reason", "", "reason for visit")
	cmd.Flags().BoolVar(&req.AgreementSigned, "agree", false, "visitor accepted the agreement")

	return cmd
}
