package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"versusbot.dev/wreck-league-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the settings file",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(flagConfig); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", flagConfig)
			}

			if err := config.SaveToINI(config.NewDefaultConfig(), flagConfig); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", flagConfig)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")
	return cmd
}
