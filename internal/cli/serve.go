package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/frontdesk/internal/config"
	"github.com/evcraddock/frontdesk/internal/db"
	"github.com/evcraddock/frontdesk/internal/logging"
	"github.com/evcraddock/frontdesk/internal/notify"
	"github.com/evcraddock/frontdesk/internal/sweep"
	"github.com/evcraddock/frontdesk/internal/visitor"
	"github.com/evcraddock/frontdesk/internal/web"
)

type serveOptions struct {
	port    int
	dbPath  string
	envFile string
	noSweep bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the frontdesk server",
		Long: `Start the HTTP server: the kiosk sign-in pages, the admin dashboard and the JSON API.

Configuration comes from FRONTDESK_* environment variables, optionally loaded
from a .env file. Flags override the environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.port, "port", 0, "port to listen on (default: $FRONTDESK_PORT or 3001)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default: $FRONTDESK_DB_PATH or ~/.frontdesk/visitors.db)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load if present")
	cmd.Flags().BoolVar(&opts.noSweep, "no-sweep", false, "disable the end-of-day auto sign-out")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	if opts.port != 0 {
		cfg.Port = opts.port
	}
	if opts.dbPath != "" {
		cfg.DBDriver = db.SQLite
		cfg.DBPath = opts.dbPath
	}
	if opts.noSweep {
		cfg.SweepEnabled = false
	}

	logging.Setup(cfg.DevMode)

	database, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer closeDB(database)

	publisher, err := notify.New(cfg.Notify)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := publisher.Close(); cerr != nil {
			slog.Warn("closing notifier", "error", cerr)
		}
	}()

	visitors := visitor.NewService(visitor.NewRepository(database), publisher)

	sweeper, err := sweep.New(visitors, sweep.NewStore(database), sweep.Config{
		At:       cfg.SweepAt,
		Location: cfg.Location,
	})
	if err != nil {
		return err
	}

	srv, err := web.NewServer(database, visitors, sweeper, cfg.Location)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SweepEnabled {
		go sweeper.Run(ctx)
	}

	slog.Info("frontdesk ready",
		"url", fmt.Sprintf("http://localhost:%d", cfg.Port),
		"db_driver", string(cfg.DBDriver),
		"notify", cfg.Notify.Backend,
		"sweep_enabled", cfg.SweepEnabled,
		"sweep_at", cfg.SweepAt,
	)
	return srv.ListenAndServe(ctx, cfg.Addr())
}
