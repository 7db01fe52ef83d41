package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/frontdesk/internal/dashboard"
)

// filterFlags holds the dashboard filter flags shared by list, export and stats.
type filterFlags struct {
	query  string
	status string
	rng    string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "match name, surname or company")
	cmd.Flags().StringVar(&f.status, "status", "", "scheduled, checked-in or checked-out (default: all)")
	cmd.Flags().StringVar(&f.rng, "range", "", "all, today, 7days or 30days (default: all)")
}

func (f *filterFlags) filter() (dashboard.Filter, error) {
	return dashboard.ParseFilter(f.query, f.status, f.rng)
}

func (f *filterFlags) empty() bool {
	return f.query == "" && f.status == "" && f.rng == ""
}

func newListCmd() *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visitors",
		Long:  "List visitors, newest first, optionally filtered by text, status and date range.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runList(cmd *cobra.Command, flags filterFlags) error {
	f, err := flags.filter()
	if err != nil {
		return err
	}

	c := newAPIClient()
	out := cmd.OutOrStdout()

	if flags.empty() {
		visitors, err := c.List(cmd.Context())
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(out, visitors)
		}
		return printVisitorTable(out, visitors)
	}

	view, err := c.Dashboard(cmd.Context(), f)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(out, view.Records)
	}
	return printVisitorTable(out, view.Records)
}
