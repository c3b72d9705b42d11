package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"omnivore_sync/internal/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show watermark and ledger sizes",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	db, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	store := postgres.NewStateStore(db)
	state, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}

	if state.Watermark().IsZero() {
		fmt.Println("watermark: not set (next pass fetches everything)")
	} else {
		fmt.Printf("watermark: %s\n", state.Watermark().Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Printf("article ledger:   %d entries\n", state.ArticleCount())
	fmt.Printf("highlight ledger: %d entries\n", state.HighlightCount())
	return nil
}
