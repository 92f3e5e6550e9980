package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Inspect and import accounts",
	}
	cmd.AddCommand(newAccountsListCmd(), newAccountsImportCmd())
	return cmd
}

func newAccountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts known to the bookkeeping database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if db == nil {
				return fmt.Errorf("no database configured")
			}
			defer db.Close()

			rows, err := db.ListAccounts()
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("No accounts recorded yet.")
				return nil
			}

			fmt.Printf("%-4s %-10s %-20s %-8s %-6s %s\n", "ID", "FID", "USERNAME", "TEAM", "FUEL", "STATUS")
			for _, a := range rows {
				fid := "-"
				if a.FID != nil {
					fid = fmt.Sprintf("%d", *a.FID)
				}
				username := "-"
				if a.Username != nil {
					username = *a.Username
				}
				status := "active"
				if a.IsRetired {
					status = "retired"
				}
				fmt.Printf("%-4d %-10s %-20s %-8s %-6d %s\n", a.ID, fid, username, a.TeamPreference, a.FuelBalance, status)
			}
			return nil
		},
	}
}

func newAccountsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import accounts from the configured token file or manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			accts, err := loadAccounts(cfg)
			if err != nil {
				return err
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if db == nil {
				return fmt.Errorf("no database configured")
			}
			defer db.Close()

			syncAccounts(db, accts)
			fmt.Printf("Imported %d accounts.\n", len(accts))
			return nil
		},
	}
}
