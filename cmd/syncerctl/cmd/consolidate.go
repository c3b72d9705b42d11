package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Merge notes with colliding titles",
	Long: `Scan the destination folder for notes sharing a full title and merge
each set into a single note. Useful after changing the grouping policy or
after concurrent syncs created duplicates.`,
	RunE: runConsolidate,
}

func init() {
	rootCmd.AddCommand(consolidateCmd)

	consolidateCmd.Flags().Duration("timeout", 5*time.Minute, "abort after this long")
}

func runConsolidate(cmd *cobra.Command, args []string) error {
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

	if err := svc.Consolidate(ctx); err != nil {
		return err
	}

	fmt.Println("consolidation completed")
	return nil
}
