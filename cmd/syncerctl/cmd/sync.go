package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single sync pass",
	Long: `Fetch new articles and highlights from the source and write them into
the note store, then advance the watermark. Equivalent to one scheduler tick
of the daemon.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Duration("timeout", 5*time.Minute, "abort the pass after this long")
}

func runSync(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")

	db, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := buildService(db)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	stats, err := svc.Sync(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("pass %s completed in %s\n", stats.PassID, stats.Duration.Round(time.Millisecond))
	fmt.Printf("  articles:   %d fetched, %d written, %d skipped\n",
		stats.ArticlesFetched, stats.ArticlesWritten, stats.ArticlesSkipped)
	fmt.Printf("  highlights: %d fetched, %d written, %d skipped\n",
		stats.HighlightsFetched, stats.HighlightsWritten, stats.HighlightsSkipped)
	fmt.Printf("  notes touched: %d, errors: %d\n", stats.NotesTouched, stats.Errors)

	if err := svc.Consolidate(ctx); err != nil {
		return fmt.Errorf("consolidate after pass: %w", err)
	}
	return nil
}
