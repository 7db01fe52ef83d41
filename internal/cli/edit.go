package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/frontdesk/internal/visitor"
)

func newEditCmd() *cobra.Command {
	var name, surname, company, host string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a visitor's name, company or host",
		Long:  "Change a visitor's name, surname, company or host. Only the flags given are changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var req visitor.UpdateRequest
			flags := cmd.Flags()
			if flags.Changed("name") {
				req.Name = &name
			}
			if flags.Changed("surname") {
				req.Surname = &surname
			}
			if flags.Changed("company") {
				req.Company = &company
			}
			if flags.Changed("host") {
				req.Host = &host
			}
			if req == (visitor.UpdateRequest{}) {
				return fmt.Errorf("nothing to change: pass --name, --surname, --company or --host")
			}

			v, err := newAPIClient().Update(cmd.Context(), id, req)
			if err != nil {
				return fmt.Errorf("updating visitor: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Visitor updated.")
			printVisitorSummary(cmd.OutOrStdout(), v)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "first name")
	cmd.Flags().StringVar(&surname, "surname", "", "surname")
	cmd.Flags().StringVar(&company, "company", "", "company")
	cmd.Flags().StringVar(&host, "host", "", "host")

	return cmd
}
