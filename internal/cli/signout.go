package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSignOutCmd() *cobra.Command {
	var timeOut string

	cmd := &cobra.Command{
		Use:   "signout <id>",
		Short: "Sign out a visitor",
		Long:  "Record a checked-in visitor's departure. Time defaults to now on the server.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := newAPIClient().SignOut(cmd.Context(), id, timeOut)
			if err != nil {
				return fmt.Errorf("signing out: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s signed out at %s.\n", v.FullName(), dash(v.TimeOut))
			return nil
		},
	}

	cmd.Flags().StringVar(&timeOut, "time", "", "departure time (default: now)")

	return cmd
}
