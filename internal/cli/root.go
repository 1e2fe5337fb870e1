package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/rwa-leads/internal/config"
	"github.com/xavierca1/rwa-leads/internal/infra/database"
	"github.com/xavierca1/rwa-leads/internal/infra/logger"
)

// RootOptions holds the global flags. Empty values fall back to the environment.
type RootOptions struct {
	Driver   string
	DSN      string
	LogLevel string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "leadctl",
		Short: "Maintenance tool for the RWA lead store",
	}

	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite|postgres), defaults to DB_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "database URL or sqlite path, defaults to DATABASE_URL")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level")

	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewColumnsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

type store struct {
	db         *sql.DB
	dialect    database.Dialect
	reconciler *database.Reconciler
	log        *zap.Logger
}

func (s *store) Close() {
	s.db.Close()
	s.log.Sync()
}

func openStore(opts *RootOptions) (*store, error) {
	cfg := config.Load()
	driver, dsn := cfg.Database.Driver, cfg.Database.URL
	if opts.Driver != "" {
		driver = opts.Driver
	}
	if opts.DSN != "" {
		dsn = opts.DSN
	}

	log, err := logger.New(opts.LogLevel, "console", "leadctl")
	if err != nil {
		return nil, err
	}

	db, dialect, err := database.NewDBConnection(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	return &store{
		db:         db,
		dialect:    dialect,
		reconciler: database.NewReconciler(db, dialect, database.LeadSchema, log),
		log:        log,
	}, nil
}
