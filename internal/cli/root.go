// Package cli wires the versus-bot commands together.
package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"versusbot.dev/wreck-league-go/internal/bot"
	"versusbot.dev/wreck-league-go/internal/config"
	"versusbot.dev/wreck-league-go/internal/logging"
)

var (
	flagConfig   string
	flagLogLevel string

	cfg *bot.Config
	log *logrus.Entry
)

// NewRootCmd creates the root cobra command for the versus-bot CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "versus-bot",
		Short: "Automated voting for Wreck League Versus matches",
		Long:  "versus-bot watches the Versus frame for match voting windows and spends fuel across a fleet of Farcaster accounts.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if _, statErr := os.Stat(flagConfig); statErr == nil {
				cfg, err = config.LoadFromINI(flagConfig)
				if err != nil {
					return err
				}
			} else {
				cfg = config.NewDefaultConfig()
			}
			if flagLogLevel != "" {
				cfg.LogLevel = flagLogLevel
			}
			logging.Setup(cfg.LogLevel)
			log = logging.Component("cli")
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "Settings.ini", "Path to the settings file")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(
		newRunCmd(),
		newAccountsCmd(),
		newClaimCmd(),
		newJournalCmd(),
		newConfigCmd(),
	)

	return root
}
