package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configDir string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("VICTORINA_CONFIG_DIR")
	if envConfig == "" {
		envConfig = "configs"
	}

	cmd := &cobra.Command{
		Use:          "victorina",
		Short:        "Quiz platform backend: quizzes, attempts, ratings and feed",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configDir, "config", envConfig, "directory holding config.yaml")
	cmd.AddCommand(newServeCmd(&configDir))
	cmd.AddCommand(newMigrateCmd(&configDir))
	return cmd
}
