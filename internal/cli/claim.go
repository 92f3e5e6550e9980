package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"versusbot.dev/wreck-league-go/internal/client"
	"versusbot.dev/wreck-league-go/internal/logging"
)

func newClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim",
		Short: "Claim pending fuel rewards for every account and report balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			accts, err := loadAccounts(cfg)
			if err != nil {
				return err
			}

			svc := client.New(cfg.VersusBaseURL, cfg.WarpcastBaseURL, cfg.RequestTimeout, logging.Component("client"))
			ctx := cmd.Context()

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			for _, acct := range accts {
				if err := svc.ResolveIdentity(ctx, acct); err != nil {
					log.WithError(err).WithField("account", acct.Index).Warn("identity resolution failed")
					continue
				}

				granted, err := svc.ClaimFuelReward(ctx, acct)
				if err != nil {
					log.WithError(err).WithField("account", acct.Index).Debug("fuel reward claim failed")
				}

				balance, err := svc.FuelBalance(ctx, acct)
				if err != nil {
					log.WithError(err).WithField("account", acct.Index).Warn("fuel balance lookup failed")
					continue
				}
				acct.SetFuel(balance)
				if db != nil {
					if err := db.UpdateAccountFuel(acct.Token, balance); err != nil {
						log.WithError(err).WithField("account", acct.Index).Warn("failed to record fuel balance")
					}
				}

				fmt.Printf("%s (fid %d): fuel %d", acct.Username(), acct.FID(), balance)
				if granted > 0 {
					fmt.Printf(" (+%d claimed)", granted)
				}
				fmt.Println()
			}
			return nil
		},
	}
}
