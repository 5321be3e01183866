package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/david-sim0niants/audio-eq/internal/config"
)

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "config:init [PATH]",
	Short: "Write a commented default config file",
	Long: `Write the default configuration, with comments, to PATH
(default: .audioeq/config.yaml). An existing file is left alone unless
--force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := localConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")
	rootCmd.AddCommand(configInitCmd)
}
