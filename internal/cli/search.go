package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Find visitors by name",
		Long:  "Find visitors whose name, surname or full name contains the given text.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			visitors, err := newAPIClient().Search(cmd.Context(), strings.Join(args, " "), status)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), visitors)
			}
			return printVisitorTable(cmd.OutOrStdout(), visitors)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "scheduled, checked-in, checked-out or all")

	return cmd
}
