package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"omnivore_sync/internal/storage/postgres"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe persisted sync state",
	Long: `Delete the watermark and both deduplication ledgers. Notes and remote
data are never touched. The next pass re-fetches everything from the epoch;
fragments already present in notes are detected and skipped, so a reset is
safe but slow.

Use --force to confirm.

Examples:
  syncerctl reset --force`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolP("force", "f", false, "confirm wiping sync state")
}

func runReset(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		return fmt.Errorf("refusing to wipe sync state without --force")
	}

	db, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	store := postgres.NewStateStore(db)
	tm := postgres.NewTransactionManager(db)

	err = tm.WithTransaction(cmd.Context(), store.Reset)
	if err != nil {
		return fmt.Errorf("reset sync state: %w", err)
	}

	fmt.Println("sync state wiped; next pass starts from the epoch")
	return nil
}
