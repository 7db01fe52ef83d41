package cli

import (
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		Long:  "Show visitor totals plus per-day and per-hour counts for the filtered log.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flags.filter()
			if err != nil {
				return err
			}
			view, err := newAPIClient().Dashboard(cmd.Context(), f)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"summary": view.Summary,
					"daily":   view.Daily,
					"hourly":  view.Hourly,
				})
			}
			printStats(cmd.OutOrStdout(), view)
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}
