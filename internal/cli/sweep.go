package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Sign out everyone still checked in",
		Long: `Run the end-of-day auto sign-out now. Before the configured sweep time visitors
are signed out at the current time and the scheduled sweep still runs later.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newAPIClient().Sweep(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweeping: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed out %d visitors for %s.\n", res.SignedOut, res.Date)
			return nil
		},
	}
}
