package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newJournalCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent journaled vote attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if db == nil {
				return fmt.Errorf("no database configured")
			}
			defer db.Close()

			attempts, err := db.RecentAttempts(limit)
			if err != nil {
				return err
			}
			if len(attempts) == 0 {
				fmt.Println("Journal is empty.")
				return nil
			}

			for _, a := range attempts {
				outcome := "ok"
				if !a.Success {
					outcome = a.ErrKind
				}
				side := "-"
				if a.SideID != nil {
					side = *a.SideID
				}
				fmt.Printf("%s  acct=%d fid=%d match=%s side=%s fuel=%d  %s\n",
					a.AttemptedAt.Format(time.RFC3339), a.AccountIndex, a.FID, a.MatchID, side, a.FuelSpent, outcome)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries to show")
	return cmd
}
