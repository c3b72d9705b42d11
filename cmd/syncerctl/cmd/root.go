// Package cmd contains all CLI commands for syncerctl.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"omnivore_sync/internal/config"
	"omnivore_sync/internal/notestore/joplin"
	"omnivore_sync/internal/service"
	"omnivore_sync/internal/source/omnivore"
	"omnivore_sync/internal/storage/postgres"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "syncerctl",
	Short: "Omnivore sync administration CLI",
	Long: `syncerctl administers the Omnivore-to-notes sync daemon: run one-off
sync passes, consolidate duplicate notes, inspect or reset persisted state.

Example usage:
  syncerctl sync               # Run a single sync pass now
  syncerctl consolidate        # Merge notes with colliding titles
  syncerctl status             # Show watermark and ledger sizes
  syncerctl reset --force      # Wipe persisted sync state`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() error {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return nil
}

func connectDB() (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// buildService wires a sync service for one-off CLI runs. Events are not
// published from the CLI; the daemon owns the broker connection.
func buildService(db *sqlx.DB) (*service.SyncService, error) {
	source := omnivore.New(omnivore.Config{
		BaseURL:        cfg.Source.BaseURL,
		APIToken:       cfg.Source.APIToken,
		PageSize:       cfg.Source.PageSize,
		Timeout:        cfg.Source.Timeout,
		MaxAttempts:    cfg.Source.Retry.MaxAttempts,
		InitialBackoff: cfg.Source.Retry.InitialBackoff,
		MaxBackoff:     cfg.Source.Retry.MaxBackoff,
	}, logger)

	noteStore := joplin.NewClient(joplin.Config{
		BaseURL:  cfg.NoteStore.BaseURL,
		APIToken: cfg.NoteStore.APIToken,
		PageSize: cfg.NoteStore.PageSize,
		Timeout:  cfg.NoteStore.Timeout,
	}, logger)

	return service.NewSyncService(
		source,
		noteStore,
		postgres.NewStateStore(db),
		postgres.NewTransactionManager(db),
		nil,
		logger,
		cfg.Sync,
	)
}
