// Package cli implements the lessongate command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llehouerou/lessongate/internal/config"
	"github.com/llehouerou/lessongate/internal/errmsg"
	"github.com/llehouerou/lessongate/internal/log"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lessongate",
	Short: "Progress-gated video lessons",
	Long: "lessongate plays video lessons against a simulated provider player, " +
		"tracks how much was really watched and keeps learners from skipping ahead.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return errors.New(errmsg.Format(errmsg.OpInitialize, fmt.Errorf("load config: %w", err)))
		}
		cfg = loaded

		level := cfg.Log.Level
		if cmd.Flags().Changed("log-level") {
			level, _ = cmd.Flags().GetString("log-level")
		}
		log.Configure(log.Config{Level: level})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
