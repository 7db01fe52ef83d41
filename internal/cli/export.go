package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/frontdesk/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		flags  filterFlags
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the visitor log as CSV or Excel",
		Long:  "Export the visitor log, filtered like the dashboard, to a CSV or XLSX file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flags.filter()
			if err != nil {
				return err
			}
			fileType, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			data, err := newAPIClient().Export(cmd.Context(), fileType, f)
			if err != nil {
				return fmt.Errorf("exporting: %w", err)
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if output == "" {
				output = export.Filename(fileType, time.Now())
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes).\n", output, len(data))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "type", "csv", "file type (csv|xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: visitor_log_<date>.<type>)")

	return cmd
}
