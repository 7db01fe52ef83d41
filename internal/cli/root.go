// Package cli defines the cobra command tree for frontdesk.
package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/frontdesk/internal/client"
	"github.com/evcraddock/frontdesk/internal/db"
)

var (
	flagFormat string
	flagServer string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "frontdesk",
		Short:         "Visitor sign-in and sign-out for the front desk",
		Long:          "Run the frontdesk server (kiosk, admin dashboard and JSON API) or manage visitors from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "server URL (default: $FRONTDESK_SERVER_URL, config file, or http://localhost:3001)")

	root.AddCommand(
		newServeCmd(),
		newListCmd(),
		newSearchCmd(),
		newShowCmd(),
		newSignInCmd(),
		newScheduleCmd(),
		newArriveCmd(),
		newSignOutCmd(),
		newEditCmd(),
		newRemoveCmd(),
		newSweepCmd(),
		newExportCmd(),
		newStatsCmd(),
		newStatusCmd(),
		newSetServerCmd(),
		newVersionCmd(),
	)

	return root
}

// newAPIClient creates an HTTP client for the frontdesk API.
func newAPIClient() *client.Client {
	return client.New(getServerURL())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// parseID parses a visitor ID argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid visitor ID: %s", arg)
	}
	return id, nil
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *db.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
