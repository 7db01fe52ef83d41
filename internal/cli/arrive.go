package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/frontdesk/internal/visitor"
)

func newArriveCmd() *cobra.Command {
	var req visitor.ArrivalRequest

	cmd := &cobra.Command{
		Use:   "arrive <id>",
		Short: "Log a scheduled visitor's arrival",
		Long:  "Check in a scheduled visitor. Time and date default to now on the server.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := newAPIClient().LogArrival(cmd.Context(), id, req)
			if err != nil {
				return fmt.Errorf("logging arrival: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s arrived at %s.\n", v.FullName(), dash(v.TimeIn))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.TimeIn, "time", "", "arrival time (default: now)")
	cmd.Flags().StringVar(&req.Date, "date", "", "arrival date (default: today)")

	return cmd
}
