package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"versusbot.dev/wreck-league-go/internal/accounts"
	"versusbot.dev/wreck-league-go/internal/bot"
	"versusbot.dev/wreck-league-go/internal/client"
	"versusbot.dev/wreck-league-go/internal/coordinator"
	"versusbot.dev/wreck-league-go/internal/database"
	"versusbot.dev/wreck-league-go/internal/logging"
	"versusbot.dev/wreck-league-go/internal/vote"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the voting loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			accts, err := loadAccounts(cfg)
			if err != nil {
				return err
			}

			var journal vote.Recorder
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
				syncAccounts(db, accts)
				if cfg.JournalVotes {
					journal = database.NewJournal(db)
				}
			}

			svc := client.New(cfg.VersusBaseURL, cfg.WarpcastBaseURL, cfg.RequestTimeout, logging.Component("client"))
			orch := coordinator.New(cfg, svc, accts, journal, logging.Component("coordinator"))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = orch.Run(ctx)
			if db != nil {
				syncAccounts(db, accts)
				for _, a := range orch.RetiredAccounts() {
					if dbErr := db.SetAccountRetired(a.Token, true); dbErr != nil {
						log.WithError(dbErr).WithField("account", a.Index).Warn("failed to record retirement")
					}
				}
			}

			switch {
			case errors.Is(err, context.Canceled):
				log.Info("shutdown complete")
				return nil
			case errors.Is(err, coordinator.ErrAllRetired):
				log.Warn("all accounts exhausted their fuel, stopping")
				return nil
			default:
				return err
			}
		},
	}
}

// loadAccounts prefers the YAML manifest when configured and falls back to
// the legacy token file.
func loadAccounts(cfg *bot.Config) ([]*accounts.Account, error) {
	if cfg.ManifestFile != "" {
		return accounts.LoadManifest(cfg.ManifestFile)
	}
	return accounts.LoadTokenFile(cfg.TokenFile)
}

// openDatabase opens and migrates the bookkeeping database. An empty path
// disables persistence entirely.
func openDatabase(cfg *bot.Config) (*database.DB, error) {
	if cfg.DatabasePath == "" {
		return nil, nil
	}
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// syncAccounts mirrors current account state into the database. Failures are
// logged and skipped; persistence never blocks the voting loop.
func syncAccounts(db *database.DB, accts []*accounts.Account) {
	for _, a := range accts {
		if _, err := db.UpsertAccount(a.Token, a.Preference.String(), a.FID(), a.Username(), a.Fuel()); err != nil {
			log.WithError(err).WithField("account", a.Index).Warn("failed to sync account record")
		}
	}
}
